package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Larrykj/School-App-sub001/internal/models"
)

func rbacRouter(claims *models.JWTClaims, allowed ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/students/:studentId/grades",
		func(c *gin.Context) {
			if claims != nil {
				c.Set(ContextUserKey, claims)
			}
		},
		RBAC(allowed...),
		func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		},
	)
	return router
}

func TestRBACAllowsListedRole(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u-1", Role: models.RoleRegistrar}
	router := rbacRouter(claims, string(models.RoleRegistrar), string(models.RoleAdmin))

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/students/S-001/grades", nil))

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestRBACRejectsUnlistedRole(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u-1", Role: models.RoleLecturer}
	router := rbacRouter(claims, string(models.RoleRegistrar), string(models.RoleAdmin))

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/students/S-001/grades", nil))

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestRBACRejectsMissingClaims(t *testing.T) {
	router := rbacRouter(nil, string(models.RoleAdmin))

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/students/S-001/grades", nil))

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestRBACSelfMatchesStudentParam(t *testing.T) {
	studentID := "S-001"
	claims := &models.JWTClaims{UserID: "u-1", Role: models.RoleStudent, StudentID: &studentID}
	router := rbacRouter(claims, SelfRole, string(models.RoleAdmin))

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/students/S-001/grades", nil))

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestRBACSelfRejectsOtherStudent(t *testing.T) {
	studentID := "S-001"
	claims := &models.JWTClaims{UserID: "u-1", Role: models.RoleStudent, StudentID: &studentID}
	router := rbacRouter(claims, SelfRole, string(models.RoleAdmin))

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/students/S-002/grades", nil))

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestRBACSelfRequiresLinkedStudent(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u-1", Role: models.RoleStudent}
	router := rbacRouter(claims, SelfRole, string(models.RoleAdmin))

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/students/S-001/grades", nil))

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}
