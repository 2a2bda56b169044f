package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Sign-in entry point, every irrecoverable session failure lands here
	RouteSignIn = "/"

	// Auth Routes - Login & Logout
	RouteAuthLogin  = "/auth/login"
	RouteAuthLogout = "/auth/logout"

	// Dashboard Routes
	RouteDashboard         = "/dashboard/"
	RouteDashboardResource = "/dashboard/api/{resource}/"
	RouteDashboardItem     = "/dashboard/api/{resource}/{id}/"
	RouteDashboardAction   = "/dashboard/api/{resource}/{id}/{action}/"

	// Operational Routes
	RouteMetrics = "/metrics"
	RouteHealthz = "/healthz"
)
