// cart_load 并发压测加购接口，观察 sentinel 限流效果
package main

import (
	"flag"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go-boutique/pkg/config"
	"go-boutique/pkg/identity"
	"go-boutique/pkg/jwt"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "storefront base URL")
	secret := flag.String("secret", "my_secret_key", "jwt.secret of the storefront")
	productID := flag.Uint("product", 1, "product to add")
	users := flag.Int("users", 50, "concurrent customers")
	flag.Parse()

	tokens := jwt.NewManager(config.JWTConfig{Secret: *secret, Expiration: time.Hour, Issuer: "go-boutique"})
	target := fmt.Sprintf("%s/cart/add/%d", strings.TrimRight(*baseURL, "/"), *productID)
	client := &http.Client{
		Timeout: 5 * time.Second,
		// 加购成功返回 303，不跟随跳转
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}

	var ok, limited, failed atomic.Int64
	var wg sync.WaitGroup
	start := time.Now()

	fmt.Printf("开始加购压测: %d 个用户 -> %s\n", *users, target)
	for i := 0; i < *users; i++ {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			token, err := tokens.GenerateToken(userID, fmt.Sprintf("load-%d", userID), identity.RoleCustomer)
			if err != nil {
				failed.Add(1)
				return
			}
			req, _ := http.NewRequest(http.MethodPost, target, strings.NewReader("discount=0"))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := client.Do(req)
			if err != nil {
				fmt.Printf("[user %d] 请求失败: %v\n", userID, err)
				failed.Add(1)
				return
			}
			resp.Body.Close()

			switch resp.StatusCode {
			case http.StatusSeeOther:
				ok.Add(1)
			case http.StatusTooManyRequests:
				limited.Add(1)
			default:
				fmt.Printf("[user %d] 状态码 %d\n", userID, resp.StatusCode)
				failed.Add(1)
			}
		}(uint(1000 + i))
	}
	wg.Wait()

	fmt.Printf("耗时 %v: 成功 %d, 被限流 %d, 失败 %d\n", time.Since(start), ok.Load(), limited.Load(), failed.Load())
}
