package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/perflens/bottleneck-analyzer/pkg/errors"
	"github.com/perflens/bottleneck-analyzer/pkg/logger/log"
	"github.com/perflens/bottleneck-analyzer/pkg/model/rest"
)

func HandleErrors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 {
			return
		}
		for i := range c.Errors {
			if i > 0 {
				log.GlobalLogger().WithContext(c).Errorf("subsequent error %d in request: %v", i, c.Errors[i].Error())
			}
		}

		err := c.Errors[0]
		if cError, ok := err.Err.(*errors.Error); ok {
			log.GlobalLogger().WithContext(c).Errorf("Rest interface error FullPath %s Code %d Message '%s' Error %+v",
				c.FullPath(), cError.Code, cError.Message, cError.OriginError)
			c.AbortWithStatusJSON(http.StatusOK, rest.ErrorResp(c, cError.Code, cError.Message, nil))
			return
		}
		log.GlobalLogger().WithContext(c).Errorf("Rest interface got unwrapped error. FullPath %s Error %+v", c.FullPath(), err)
		c.AbortWithStatusJSON(http.StatusOK, rest.ErrorResp(c, errors.InternalError, "Unknown error", nil))
	}
}
