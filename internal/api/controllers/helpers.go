package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront/pkg/middleware"
	"storefront/pkg/utils"
)

// currentUserID reads the id set by JWTAuthMiddleware. It writes the error
// response itself when the id is unusable.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString(middleware.CtxUserID))
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, "Invalid token subject")
		return uuid.Nil, false
	}
	return id, true
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func pageParams(c *gin.Context) (int, int, bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		utils.RespondError(c, http.StatusBadRequest, "Invalid page number")
		return 0, 0, false
	}

	pageSize, err := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		utils.RespondError(c, http.StatusBadRequest, "Invalid page size")
		return 0, 0, false
	}
	return page, pageSize, true
}

// bindOptionalJSON binds the body when one was sent. Admin actions accept an empty body.
func bindOptionalJSON(c *gin.Context, dst interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
