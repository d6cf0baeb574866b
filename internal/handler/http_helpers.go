package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/engine"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

// parseDayOrToday 解析 2006-01-02 形式的日期参数，空值回退到今天。
// 第二个返回值标记解析是否成功。
func parseDayOrToday(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return engine.DayOf(time.Now()), true
	}

	t, err := time.ParseInLocation(engine.DateFormat, value, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
