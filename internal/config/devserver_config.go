package config

import (
	"fmt"
	"time"
)

const (
	portEnvVar          = "PORT"
	jwtSecretVar        = "JWT_SECRET"
	adminEmailVar       = "SYSTEM_ADMIN_EMAIL"
	adminPasswordVar    = "SYSTEM_ADMIN_PASSWORD"
	demoPasswordVar     = "DEMO_PASSWORD"
	DefaultAdminEmail   = "admin@pgportal.app"
	DefaultDemoPassword = "Password123"
)

type DevServerConfig interface {
	GetPort() string
	GetJWTSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetSecureCookies() bool
	GetSystemAdminEmail() string
	GetSystemAdminPassword() string
	GetDemoPassword() string
}

type DevServer struct{}

var _ DevServerConfig = DevServer{}

func (DevServer) GetPort() string {
	port := GetEnv(portEnvVar, "3001")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (DevServer) GetJWTSecret() string {
	return GetEnv(jwtSecretVar, "dev-only-secret-change-me")
}

func (DevServer) GetAccessTokenExpiry() time.Duration {
	return GetDurationEnv("ACCESS_TOKEN_EXPIRY", 15*time.Minute)
}

func (DevServer) GetRefreshTokenExpiry() time.Duration {
	return GetDurationEnv("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour) // 7 days
}

func (DevServer) GetSecureCookies() bool {
	return GetBoolEnv("SECURE_COOKIES", false)
}

func (DevServer) GetSystemAdminEmail() string {
	return GetEnv(adminEmailVar, DefaultAdminEmail)
}

// GetSystemAdminPassword returns the seeded administrator password. Empty
// means one is generated and printed at start up.
func (DevServer) GetSystemAdminPassword() string {
	return GetEnv(adminPasswordVar, "")
}

// GetDemoPassword is shared by every seeded tenant account.
func (DevServer) GetDemoPassword() string {
	return GetEnv(demoPasswordVar, DefaultDemoPassword)
}
