package router

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/startrail/internal/catalog"
	"github.com/startrail/internal/handler"
	"github.com/startrail/internal/middleware"
	"github.com/startrail/internal/service"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/hkdf"
)

const cookieKeyInfo = "startrail cookie signing v1"

// Options 控制路由层的横切配置
type Options struct {
	SessionSecret  string
	SecureCookies  bool
	CookieMaxAge   int // seconds
	AllowedOrigins []string
	SiteBaseURL    string
	EnableMetrics  bool
	Logger         *zap.Logger
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(store service.CompletionStore, cat *catalog.Catalog, opts Options) (*gin.Engine, error) {
	if opts.SessionSecret == "" {
		return nil, errors.New("session secret is required")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	key, err := deriveCookieKey(opts.SessionSecret)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(middleware.ZapLogger(log))
	r.Use(gin.Recovery())

	if len(opts.AllowedOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = opts.AllowedOrigins
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
		corsConfig.AllowCredentials = true
		corsConfig.MaxAge = 12 * time.Hour
		r.Use(cors.New(corsConfig))
	}

	// 两个 cookie 共用同一签名密钥
	cookieStore := cookie.NewStore(key)
	cookieStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   opts.CookieMaxAge,
		Secure:   opts.SecureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.SessionsMany([]string{handler.SessionCookieName, handler.PrefsCookieName}, cookieStore))

	// 指标中间件须在注册路由之前挂载，/metrics 由它注册
	if opts.EnableMetrics {
		p := ginprometheus.NewPrometheus("gin")
		p.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
			if route := c.FullPath(); route != "" {
				return route
			}
			return "unmatched"
		}
		p.Use(r)
	}

	api := handler.NewAPI(store, cat, log).WithSiteBaseURL(opts.SiteBaseURL)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	api.RegisterRoutes(r)

	return r, nil
}

// deriveCookieKey 从配置的密钥派生 64 字节 HMAC 签名密钥
func deriveCookieKey(secret string) ([]byte, error) {
	key := make([]byte, 64)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(cookieKeyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive cookie key: %w", err)
	}
	return key, nil
}
