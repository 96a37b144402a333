package worker

import (
	"github.com/famguard/guardian-service/internal/service"
)

// StartSecurityWorker registers security log handlers.
func StartSecurityWorker(securityService *service.SecurityService) {
	if securityService == nil {
		return
	}
	securityService.RegisterHandlers()
}
