package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Larrykj/School-App-sub001/internal/middleware"
	"github.com/Larrykj/School-App-sub001/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// canAccessStudent reports whether the caller may read the student's
// records. Staff roles see everyone; students see only themselves.
func canAccessStudent(claims *models.JWTClaims, studentID string) bool {
	if claims == nil {
		return false
	}
	if claims.Role != models.RoleStudent {
		return true
	}
	return claims.StudentID != nil && *claims.StudentID == studentID
}
