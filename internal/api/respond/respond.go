package respond

import (
	"github.com/wb-go/wbf/ginext"

	"github.com/aliskhannn/contentful-watermark/internal/model"
)

// Error represents a standard structure for error responses.
type Error struct {
	Message string `json:"message"`
}

// JSON sends a JSON response with the specified HTTP status code and data.
// It uses the Gin context to encode the data into JSON format.
func JSON(c *ginext.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Result writes a pipeline result using its own status code.
func Result(c *ginext.Context, res model.Result) {
	JSON(c, res.StatusCode, res)
}

// Fail sends an error JSON response with the specified HTTP status code.
// The error message is wrapped in an Error struct.
func Fail(c *ginext.Context, status int, err error) {
	JSON(c, status, Error{Message: err.Error()})
}
