package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/freecs/freecs-api/internal/middleware"
	"github.com/freecs/freecs-api/internal/service"
)

// Router holds every handler and registers the HTTP surface.
type Router struct {
	Auth       *AuthHandler
	Instructor *InstructorHandler
	Category   *CategoryHandler
	Course     *CourseHandler
	Enrollment *EnrollmentHandler
	Preference *PreferenceHandler
	Health     *HealthHandler

	AuthService *service.AuthService
	Metrics     *service.MetricsService
}

// Register attaches all routes to the engine.
func (rt *Router) Register(r *gin.Engine) {
	r.GET("/health", rt.Health.Health)
	r.GET("/ready", rt.Health.Ready)
	if rt.Metrics != nil {
		r.GET("/metrics", gin.WrapH(rt.Metrics.HTTPHandler()))
	}

	authRequired := middleware.JWT(rt.AuthService)

	r.POST("/signup/", rt.Auth.SignUp)
	r.POST("/login/", rt.Auth.Login)
	r.POST("/refresh/", rt.Auth.Refresh)
	r.GET("/profile/", authRequired, rt.Auth.Profile)
	r.POST("/changepassword/", authRequired, rt.Auth.ChangePassword)
	r.POST("/send-reset/", rt.Auth.SendReset)
	r.POST("/send-reset/:uid/:token/", rt.Auth.ConfirmReset)

	r.GET("/instructors/", rt.Instructor.List)
	r.PUT("/instructors/:id/update/", rt.Instructor.Update)

	r.GET("/category/", rt.Category.List)
	r.POST("/category/add", rt.Category.Create)

	r.GET("/courses/", rt.Course.List)
	r.POST("/courses/add", authRequired, middleware.RequireInstructor(), rt.Course.Create)
	r.GET("/courses/export", rt.Course.Export)

	r.GET("/enrollment/", rt.Enrollment.List)
	r.POST("/enrollment/add", rt.Enrollment.Create)

	r.POST("/preferences/add", authRequired, rt.Preference.Create)
	r.GET("/preferred-courses/:member_id/", rt.Course.Preferred)

	r.GET("/search/", rt.Course.Search)
}
