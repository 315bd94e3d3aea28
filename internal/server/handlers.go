package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ansarctica/ross/internal/catalog"
	"github.com/ansarctica/ross/internal/degreeplan"
	"github.com/ansarctica/ross/internal/engine"
	"github.com/ansarctica/ross/internal/observability"
	"github.com/ansarctica/ross/internal/session"
	"github.com/ansarctica/ross/internal/types"
)

var scheduleNamespace = uuid.MustParse("6f2b8c1e-4d1a-4b7e-9a51-3c0f5d2e7a90")

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "service": serviceName, "version": serviceVersion})
}

func serveIndex(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		index := filepath.Join(dir, "index.html")
		if _, err := os.Stat(index); err != nil {
			abortDetail(c, http.StatusNotFound, "static/index.html not found")
			return
		}
		c.File(index)
	}
}

func ListMajors(cat *catalog.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"items": cat.Names()})
	}
}

func LookupMajor(cat *catalog.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		items := []types.Program{}
		if p, ok := cat.Lookup(c.Query("name")); ok {
			items = append(items, p)
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

// ScheduleID derives a stable id from the request so repeated submissions
// of the same majors and courses share one id.
func ScheduleID(majors, courses []string) string {
	name := strings.Join(majors, "\x00") + "\x01" + strings.Join(courses, "\x00")
	id := strings.ReplaceAll(uuid.NewSHA1(scheduleNamespace, []byte(name)).String(), "-", "")
	return "sched_" + id[:10]
}

func CreateSchedule(s engine.Scheduler, store session.Store, m *observability.Metrics, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ScheduleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortDetail(c, http.StatusBadRequest, "bad json")
			return
		}
		req.Normalize()
		if err := validate.Struct(&req); err != nil {
			abortDetail(c, http.StatusUnprocessableEntity, validationDetail(err))
			return
		}

		ctx := c.Request.Context()
		if len(req.CoursesTaken) == 0 && req.SessionID != "" {
			sess, err := store.Get(ctx, req.SessionID)
			switch {
			case err == nil:
				req.CoursesTaken = sess.Completed
			case err != nil && !errors.Is(err, session.ErrNotFound):
				logger.Warn("load session for schedule", zap.String("session", req.SessionID), zap.Error(err))
			}
		}
		if req.CoursesTaken == nil {
			req.CoursesTaken = []string{}
		}

		logger.Info("schedule request",
			zap.Strings("majors", req.Majors),
			zap.Int("courses_taken", len(req.CoursesTaken)))

		solved := engine.Solve(ctx, s, &engine.Request{Majors: req.Majors, CoursesTaken: req.CoursesTaken})
		if m != nil {
			m.RecordEngineCall(solved.OK)
		}
		if !solved.OK {
			logger.Warn("schedule failed", zap.String("reason", solved.Message))
			abortDetail(c, http.StatusBadGateway, solved.Message)
			return
		}

		resp := ScheduleResponse{
			Message:      solved.Message,
			Majors:       req.Majors,
			CoursesTaken: req.CoursesTaken,
			Semesters:    solved.Response.Semesters,
			Reasons:      solved.Response.Reasons,
			ScheduleID:   ScheduleID(req.Majors, req.CoursesTaken),
		}

		if req.SessionID != "" {
			_, err := store.Update(ctx, req.SessionID, func(sess *session.Session) error {
				sess.Majors = resp.Majors
				sess.CoursesTaken = resp.CoursesTaken
				sess.ScheduleID = resp.ScheduleID
				sess.Schedule = solved.Response
				return nil
			})
			if err != nil {
				logger.Error("save schedule", zap.String("session", req.SessionID), zap.Error(err))
				abortDetail(c, http.StatusInternalServerError, "failed to save session")
				return
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}

func IngestDegreePlan(store session.Store, m *observability.Metrics, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req DegreePlanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortDetail(c, http.StatusBadRequest, "bad json")
			return
		}
		if err := validate.Struct(&req); err != nil {
			abortDetail(c, http.StatusUnprocessableEntity, validationDetail(err))
			return
		}

		res := degreeplan.IngestDetailed(req.OrderedLabels, req.AllEntries())
		if m != nil {
			m.RecordIngest(res)
		}
		logger.Info("degree plan ingested",
			zap.Int("buckets", res.Registry.Len()),
			zap.Int("skipped", len(res.Skipped)),
			zap.Int("unassigned", len(res.Unassigned)))
		if len(res.Unassigned) > 0 {
			logger.Warn("courses under unordered labels dropped", zap.Strings("raw", res.Unassigned))
		}

		completed := req.CompletedCodes()
		id := req.SessionID
		if id == "" {
			id = uuid.NewString()
		}
		_, err := store.Update(c.Request.Context(), id, func(sess *session.Session) error {
			reg := res.Registry
			sess.Plan = &reg
			sess.Skipped = res.Skipped
			sess.Completed = completed
			return nil
		})
		if err != nil {
			logger.Error("save degree plan", zap.String("session", id), zap.Error(err))
			abortDetail(c, http.StatusInternalServerError, "failed to save session")
			return
		}

		resp := DegreePlanResponse{
			SessionID:  id,
			Registry:   res.Registry,
			Completed:  completed,
			Skipped:    res.Skipped,
			Unassigned: res.Unassigned,
		}
		if resp.Skipped == nil {
			resp.Skipped = []string{}
		}
		if req.Debug {
			resp.Report = degreeplan.RenderText(res.Registry)
		}
		c.JSON(http.StatusOK, resp)
	}
}

func GetSession(store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := store.Get(c.Request.Context(), c.Param("sessionId"))
		if errors.Is(err, session.ErrNotFound) {
			abortDetail(c, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			abortDetail(c, http.StatusInternalServerError, "failed to load session")
			return
		}
		c.JSON(http.StatusOK, sess)
	}
}

func DeleteSession(store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := store.Delete(c.Request.Context(), c.Param("sessionId"))
		if errors.Is(err, session.ErrNotFound) {
			abortDetail(c, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			abortDetail(c, http.StatusInternalServerError, "failed to delete session")
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Namespace()+" failed on "+fe.Tag())
	}
	return strings.Join(msgs, "; ")
}
