// Package testutil provides shared fixtures for tests: seeded SQLite books
// and event recorders. The in-process API lives in testutil/apitest.
package testutil

import "github.com/gin-gonic/gin"

func init() {
	gin.SetMode(gin.TestMode)
}
