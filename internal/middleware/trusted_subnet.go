// Package middleware содержит HTTP middleware для обработки запросов.
// Включает аутентификацию по Bearer-токену, логирование, метрики, сжатие ответов
// и проверку доверенных подсетей.
package middleware

import (
	"net"
	"net/http"

	"go.uber.org/zap"
)

// TrustedSubnetMiddleware пропускает только клиентов из подсети trustedSubnet (CIDR).
// Адрес клиента берётся из X-Real-IP, а при его отсутствии из RemoteAddr.
// Пустая или некорректная подсеть закрывает доступ всем.
func TrustedSubnetMiddleware(trustedSubnet string, logger *zap.Logger) func(http.Handler) http.Handler {
	var network *net.IPNet
	if trustedSubnet != "" {
		var err error
		_, network, err = net.ParseCIDR(trustedSubnet)
		if err != nil {
			logger.Error("Invalid trusted_subnet CIDR",
				zap.String("trusted_subnet", trustedSubnet),
				zap.Error(err))
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if network == nil {
				deny(w, r, logger, "trusted_subnet is not configured")
				return
			}

			ip := clientIP(r)
			if ip == nil {
				deny(w, r, logger, "client address is invalid")
				return
			}
			if !network.Contains(ip) {
				deny(w, r, logger, "IP not in trusted subnet", zap.String("client_ip", ip.String()))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) net.IP {
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return net.ParseIP(realIP)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return net.ParseIP(host)
}

func deny(w http.ResponseWriter, r *http.Request, logger *zap.Logger, reason string, fields ...zap.Field) {
	logger.Warn("Access denied: "+reason, append(fields,
		zap.String("method", r.Method),
		zap.String("uri", r.RequestURI),
		zap.String("remote_addr", r.RemoteAddr))...)
	writeError(w, http.StatusForbidden, "Access denied")
}
