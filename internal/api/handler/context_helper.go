package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/pkg/response"
)

// MustGetUserID reads the user_id set by JWTAuth. On false a 401 has been
// written and the caller should return.
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, "user_id")
}

// MustGetRole reads the role set by JWTAuth.
func MustGetRole(c *gin.Context) (string, bool) {
	return mustGetString(c, "role")
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, response.CodeUnauthorized, "unauthenticated")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, response.CodeUnauthorized, "unauthenticated")
		return "", false
	}
	return s, true
}

// paramPhaseID parses :id as a phase id. On false a 400 has been written.
func paramPhaseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		response.BadRequest(c, response.CodeValidation, "invalid phase id")
		return 0, false
	}
	return id, true
}

// paramUintID parses :id as a row id.
func paramUintID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, response.CodeValidation, "invalid id")
		return 0, false
	}
	return uint(id), true
}
