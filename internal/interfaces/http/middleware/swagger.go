package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mar-ia/crm/internal/interfaces/http/dto"
)

// SwaggerGuard hides the API docs when disabled and restricts them to
// allowedIPs (plain IPs or CIDRs) when the list is not empty.
func SwaggerGuard(enabled bool, allowedIPs []string) gin.HandlerFunc {
	var (
		ips  []net.IP
		nets []*net.IPNet
	)
	for _, s := range allowedIPs {
		if strings.Contains(s, "/") {
			if _, n, err := net.ParseCIDR(s); err == nil {
				nets = append(nets, n)
			}
		} else if ip := net.ParseIP(s); ip != nil {
			ips = append(ips, ip)
		}
	}
	restricted := len(allowedIPs) > 0

	return func(c *gin.Context) {
		if !enabled {
			abortWithCode(c, dto.CodeNotFound, "Documentación no disponible")
			return
		}
		if restricted && !ipAllowed(net.ParseIP(c.ClientIP()), ips, nets) {
			abortWithCode(c, dto.CodeForbidden, "Acceso a la documentación restringido")
			return
		}
		c.Next()
	}
}

func ipAllowed(ip net.IP, ips []net.IP, nets []*net.IPNet) bool {
	if ip == nil {
		return false
	}
	for _, allowed := range ips {
		if allowed.Equal(ip) {
			return true
		}
	}
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
