package discovery

import (
	"fmt"
	"net"

	"github.com/hashicorp/consul/api"
	"go.uber.org/zap"
)

// Registration describes one service instance. When GRPCPort is set Consul
// checks the gRPC health service, otherwise it polls HTTP /health.
type Registration struct {
	Name     string
	Port     int
	GRPCPort int
	Tags     []string
}

// RegisterService 将服务注册到 Consul，返回注销函数
func RegisterService(consulAddr string, reg Registration, log *zap.Logger) (func() error, error) {
	// 1. 获取 Consul 客户端
	cfg := api.DefaultConfig()
	cfg.Address = consulAddr
	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	// 2. 获取本机 IP (非 Loopback)
	localIP, err := getOutboundIP()
	if err != nil {
		return nil, err
	}

	// ID 必须唯一，通常使用 "服务名-IP-端口"
	serviceID := fmt.Sprintf("%s-%s-%d", reg.Name, localIP, reg.Port)

	registration := &api.AgentServiceRegistration{
		ID:      serviceID,
		Name:    reg.Name,
		Port:    reg.Port,
		Address: localIP,
		Tags:    append([]string{"boutique", "http"}, reg.Tags...),
		Check:   healthCheck(localIP, reg),
	}

	if err := client.Agent().ServiceRegister(registration); err != nil {
		return nil, fmt.Errorf("registering %s with consul: %w", serviceID, err)
	}

	log.Info("Service registered",
		zap.String("service", reg.Name),
		zap.String("id", serviceID),
		zap.String("address", fmt.Sprintf("%s:%d", localIP, reg.Port)),
	)
	return func() error {
		return client.Agent().ServiceDeregister(serviceID)
	}, nil
}

func healthCheck(ip string, reg Registration) *api.AgentServiceCheck {
	check := &api.AgentServiceCheck{
		Interval:                       "10s",
		Timeout:                        "5s",
		DeregisterCriticalServiceAfter: "30s", // 挂了30秒后自动注销
	}
	if reg.GRPCPort > 0 {
		check.GRPC = fmt.Sprintf("%s:%d", ip, reg.GRPCPort)
		return check
	}
	check.HTTP = fmt.Sprintf("http://%s:%d/health", ip, reg.Port)
	return check
}

// getOutboundIP 获取本机对外 IP
// 因为如果是 Docker 或局域网，不能注册 127.0.0.1
func getOutboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String(), nil
}
