package service

import (
	"strings"
	"sync"
	"time"

	"github.com/vnpay-checkout/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService 管理端认证服务
type AuthService struct {
	jwtCfg      config.JWTConfig
	adminCfg    config.AdminConfig
	compareHash func(hashedPassword, password []byte) error
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// dummyPasswordHash 用户不存在时参与比对的哈希，使响应耗时与真实账号一致
func dummyPasswordHash() []byte {
	dummyHashOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("vnpay-checkout-dummy-password"), bcrypt.DefaultCost)
		if err == nil {
			dummyHash = hash
		}
	})
	return dummyHash
}

// NewAuthService 创建认证服务实例
func NewAuthService(jwtCfg config.JWTConfig, adminCfg config.AdminConfig) *AuthService {
	return &AuthService{
		jwtCfg:      jwtCfg,
		adminCfg:    adminCfg,
		compareHash: bcrypt.CompareHashAndPassword,
	}
}

// HashPassword 使用 bcrypt 加密密码
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword 验证密码
func (s *AuthService) VerifyPassword(hashedPassword, password string) error {
	if s.compareHash == nil {
		return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	}
	return s.compareHash([]byte(hashedPassword), []byte(password))
}

// JWTClaims JWT 声明
type JWTClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateJWT 生成 JWT Token
func (s *AuthService) GenerateJWT(username string) (string, time.Time, error) {
	hours := s.jwtCfg.ExpireHours
	if hours <= 0 {
		hours = 24
	}
	now := time.Now()
	expiresAt := now.Add(time.Duration(hours) * time.Hour)

	claims := JWTClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.jwtCfg.Issuer,
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtCfg.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseJWT 解析 JWT Token
func (s *AuthService) ParseJWT(tokenString string) (*JWTClaims, error) {
	options := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer := strings.TrimSpace(s.jwtCfg.Issuer); issuer != "" {
		options = append(options, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtCfg.SecretKey), nil
	})
	if err != nil {
		return nil, ErrTokenInvalid
	}
	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrTokenInvalid
}

// Login 管理员登录
func (s *AuthService) Login(username, password string) (string, time.Time, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", time.Time{}, ErrInvalidCredentials
	}
	account, ok := s.adminCfg.FindAccount(username)
	hash := strings.TrimSpace(account.PasswordHash)
	if !ok || hash == "" {
		_ = s.VerifyPassword(string(dummyPasswordHash()), password)
		return "", time.Time{}, ErrInvalidCredentials
	}
	if err := s.VerifyPassword(hash, password); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}
	return s.GenerateJWT(username)
}
