// SPDX-License-Identifier: AGPL-3.0-or-later
// gateway - Federated pub/sub/RPC namespace gateway
// Copyright (C) 2026 The rocon-go Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// Package http exposes the engine's eleven operator commands plus
// connect_hub/disconnect_hub over HTTP+JSON (§6.1), the Go-native
// replacement for rocon_gateway's ROS-service-based gateway_controller API.
package http

import (
	"net/http"
	"strconv"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rocon-go/gateway/internal/config"
	"github.com/rocon-go/gateway/internal/connection"
	"github.com/rocon-go/gateway/internal/engine"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const (
	rateLimitRate  = time.Second
	rateLimitLimit = 10
)

// ruleBody is the wire shape of a connection.Rule in request bodies.
type ruleBody struct {
	Type        string `json:"type" binding:"required"`
	NamePattern string `json:"name_pattern" binding:"required"`
	NodePattern string `json:"node_pattern" binding:"required"`
}

func (b ruleBody) toRule() (connection.Rule, bool) {
	t := connection.ConnectionType(b.Type)
	if !t.Valid() {
		return connection.Rule{}, false
	}
	return connection.Rule{Type: t, NamePattern: b.NamePattern, NodePattern: b.NodePattern}, true
}

// remoteRuleBody is the wire shape of a connection.RemoteRule.
type remoteRuleBody struct {
	TargetGateway string   `json:"target_gateway" binding:"required"`
	Rule          ruleBody `json:"rule" binding:"required"`
}

func (b remoteRuleBody) toRemoteRule() (connection.RemoteRule, bool) {
	rule, ok := b.toRule()
	if !ok {
		return connection.RemoteRule{}, false
	}
	return connection.RemoteRule{TargetGateway: b.TargetGateway, Rule: rule}, true
}

func (b remoteRuleBody) toRule() (connection.Rule, bool) {
	return b.Rule.toRule()
}

// NewRouter builds the gin engine serving the operator RPC surface. Every
// mutating endpoint (flip/pull/advertise/hub connect) is rate-limited;
// read-only endpoints (info/graph) are not.
func NewRouter(cfg *config.Config, eng *engine.Engine) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	if cfg.Metrics.OTLPEndpoint != "" {
		r.Use(otelgin.Middleware("gateway"))
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	if cfg.HTTP.CanonicalHost != "" {
		corsConfig.AllowOrigins = []string{cfg.HTTP.CanonicalHost}
	}
	r.Use(cors.New(corsConfig))

	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{Rate: rateLimitRate, Limit: rateLimitLimit})
	limiter := ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limited", "retry_after": time.Until(info.ResetTime).String()})
		},
		KeyFunc: func(c *gin.Context) string { return c.ClientIP() },
	})

	registerGatewayRoutes(r, eng, limiter)
	return r
}

func registerGatewayRoutes(r *gin.Engine, eng *engine.Engine, limiter gin.HandlerFunc) {
	g := r.Group("/api/v1/gateway")

	g.POST("/hubs", limiter, connectHubHandler(eng))
	g.DELETE("/hubs/:id", limiter, disconnectHubHandler(eng))

	g.POST("/advertise", limiter, advertiseHandler(eng))
	g.DELETE("/advertise", limiter, unadvertiseHandler(eng))

	g.POST("/flip", limiter, flipHandler(eng))
	g.DELETE("/flip", limiter, unflipHandler(eng))

	g.POST("/pull", limiter, pullHandler(eng))
	g.DELETE("/pull", limiter, unpullHandler(eng))

	g.POST("/flip-all", limiter, flipAllHandler(eng))

	g.POST("/public/all", limiter, makeAllPublicHandler(eng))
	g.DELETE("/public/all", limiter, removeAllPublicHandler(eng))

	g.GET("/info", gatewayInfoHandler(eng))
	g.GET("/remote/:name", remoteGatewayInfoHandler(eng))
	g.GET("/graph", connectionGraphHandler(eng))
}

func rulesFromBody(bodies []ruleBody) ([]connection.Rule, bool) {
	out := make([]connection.Rule, 0, len(bodies))
	for _, b := range bodies {
		rule, ok := b.toRule()
		if !ok {
			return nil, false
		}
		out = append(out, rule)
	}
	return out, true
}

func remoteRulesFromBody(bodies []remoteRuleBody) ([]connection.RemoteRule, bool) {
	out := make([]connection.RemoteRule, 0, len(bodies))
	for _, b := range bodies {
		rule, ok := b.toRemoteRule()
		if !ok {
			return nil, false
		}
		out = append(out, rule)
	}
	return out, true
}

func advertiseHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Rules []ruleBody `json:"rules" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rules, ok := rulesFromBody(body.Rules)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown connection type"})
			return
		}
		ok2, msg, err := eng.Advertise(rules)
		respondCommand(c, ok2, msg, err)
	}
}

func unadvertiseHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Rules []ruleBody `json:"rules" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rules, ok := rulesFromBody(body.Rules)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown connection type"})
			return
		}
		ok2, msg, err := eng.Unadvertise(rules)
		respondCommand(c, ok2, msg, err)
	}
}

func flipHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Rules []remoteRuleBody `json:"rules" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rules, ok := remoteRulesFromBody(body.Rules)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown connection type"})
			return
		}
		ok2, msg, err := eng.Flip(rules)
		respondCommand(c, ok2, msg, err)
	}
}

func unflipHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Rules []remoteRuleBody `json:"rules" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rules, ok := remoteRulesFromBody(body.Rules)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown connection type"})
			return
		}
		ok2, msg, err := eng.Unflip(rules)
		respondCommand(c, ok2, msg, err)
	}
}

func pullHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Rules []remoteRuleBody `json:"rules" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rules, ok := remoteRulesFromBody(body.Rules)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown connection type"})
			return
		}
		ok2, msg, err := eng.Pull(rules)
		respondCommand(c, ok2, msg, err)
	}
}

func unpullHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Rules []remoteRuleBody `json:"rules" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rules, ok := remoteRulesFromBody(body.Rules)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown connection type"})
			return
		}
		ok2, msg, err := eng.Unpull(rules)
		respondCommand(c, ok2, msg, err)
	}
}

func flipAllHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Targets []string `json:"targets" binding:"required"`
			Mode    string   `json:"mode" binding:"required"`
			Names   []string `json:"names"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ok, msg, err := eng.FlipAll(body.Targets, engine.FlipAllMode(body.Mode), body.Names)
		respondCommand(c, ok, msg, err)
	}
}

func makeAllPublicHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, msg, err := eng.MakeAllPublic()
		respondCommand(c, ok, msg, err)
	}
}

func removeAllPublicHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, msg, err := eng.RemoveAllPublic()
		respondCommand(c, ok, msg, err)
	}
}

func connectHubHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Host string `json:"host" binding:"required"`
			Port int    `json:"port" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ok, msg, err := eng.ConnectHub(c.Request.Context(), body.Host, body.Port)
		respondCommand(c, ok, msg, err)
	}
}

// disconnectHubHandler expects :id as "host:port" (the same form
// config.Hub.Address produces), matching the hub registry's own keying.
func disconnectHubHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		host, port, ok := splitHostPort(c.Param("id"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id must be \"host:port\""})
			return
		}
		ok2, msg, err := eng.DisconnectHub(c.Request.Context(), host, port)
		respondCommand(c, ok2, msg, err)
	}
}

func gatewayInfoHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, eng.GatewayInfo())
	}
}

func remoteGatewayInfoHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		info, err := eng.RemoteGatewayInfo(c.Request.Context(), []string{name})
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		entry, ok := info[name]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "remote gateway unavailable"})
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}

func connectionGraphHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"edges": eng.ConnectionGraph(c.Request.Context())})
	}
}

func respondCommand(c *gin.Context, ok bool, msg string, err error) {
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": msg, "error": err.Error()})
		return
	}
	status := http.StatusOK
	if !ok {
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"ok": ok, "message": msg})
}

func splitHostPort(id string) (string, int, bool) {
	for i := len(id) - 1; i >= 0; i-- {
		if id[i] == ':' {
			port, err := strconv.Atoi(id[i+1:])
			if err != nil {
				return "", 0, false
			}
			return id[:i], port, true
		}
	}
	return "", 0, false
}
