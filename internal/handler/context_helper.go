package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/HungtdFPI/TaskforceAF/internal/dto"
	"github.com/HungtdFPI/TaskforceAF/internal/middleware"
	"github.com/HungtdFPI/TaskforceAF/internal/models"
	appErrors "github.com/HungtdFPI/TaskforceAF/pkg/errors"
	"github.com/HungtdFPI/TaskforceAF/pkg/response"
)

// currentActor returns the caller's identity or writes a 401 and reports false.
func currentActor(c *gin.Context) (models.Actor, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok || actor.UserID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Actor{}, false
	}
	return actor, true
}

// parseReportQuery reads ?status=a,b&class=&q=&period= into a ReportQuery.
func parseReportQuery(c *gin.Context) (dto.ReportQuery, error) {
	query := dto.ReportQuery{
		ClassName: c.Query("class"),
		Search:    c.Query("q"),
		Period:    models.CreatedPeriod(strings.ToLower(strings.TrimSpace(c.Query("period")))),
	}
	if !query.Period.Valid() {
		return dto.ReportQuery{}, appErrors.Clone(appErrors.ErrValidation, "period must be all, today, week or month")
	}
	for _, raw := range c.QueryArray("status") {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			status := models.ReportStatus(part)
			if !status.Valid() {
				return dto.ReportQuery{}, appErrors.Clone(appErrors.ErrValidation, "unknown status "+part)
			}
			query.Status = append(query.Status, status)
		}
	}
	return query, nil
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message))
		return false
	}
	return true
}
