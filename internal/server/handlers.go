package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/seoprobe/internal/pipeline"
	"github.com/nao1215/seoprobe/internal/urlnorm"
)

// health answers liveness probes.
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// sitemaps handles GET /api/sitemaps?url=&limit=.
func (s *Server) sitemaps(c *gin.Context) {
	target, ok := s.targetURL(c)
	if !ok {
		return
	}
	limit := intParam(c, "limit", 0, s.maxLimit)

	prober, err := s.factory(target)
	if err != nil {
		s.fail(c, err)
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	discovery, err := pipeline.DiscoverSitemaps(ctx, prober, target, limit, s.maxFiles)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, discovery)
}

// touchpoints handles GET /api/touchpoints?url=&sample=.
func (s *Server) touchpoints(c *gin.Context) {
	target, ok := s.targetURL(c)
	if !ok {
		return
	}
	sample := intParam(c, "sample", 0, s.maxSample)

	prober, err := s.factory(target)
	if err != nil {
		s.fail(c, err)
		return
	}

	opts := append([]pipeline.DefaultPipelineOption{pipeline.WithPipelineLogger(s.logger)}, s.pipelineOpts...)
	opts = append(opts, pipeline.WithPipelineSampleSize(sample))
	p := pipeline.DefaultPipeline(prober, nil, opts...)

	ctx, cancel := s.requestContext(c)
	defer cancel()

	report, err := p.Run(ctx, target)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// targetURL reads and validates the url query parameter, answering 400
// itself when it is unusable.
func (s *Server) targetURL(c *gin.Context) (string, bool) {
	raw := strings.TrimSpace(c.Query("url"))
	if _, err := urlnorm.Normalize(raw, nil); err != nil {
		s.fail(c, err)
		return "", false
	}
	return raw, true
}

// fail writes the error envelope for err.
func (s *Server) fail(c *gin.Context, err error) {
	status, code := classify(err)
	_ = c.Error(err) //nolint:errcheck // recorded for the request log
	c.JSON(status, newErrorEnvelope(code, err.Error()))
}

// intParam reads a positive integer query parameter. Missing, malformed
// and non-positive values yield def; values above maxValue are clamped.
func intParam(c *gin.Context, name string, def, maxValue int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if maxValue > 0 && n > maxValue {
		return maxValue
	}
	return n
}
