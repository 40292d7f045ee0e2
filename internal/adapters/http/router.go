// Package http exposes the ops surface: health, session inspection and
// moderator corrections for when the chat surface is unavailable.
package http

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lolvely/blibot/internal/app"
	"github.com/lolvely/blibot/internal/core"
	"github.com/lolvely/blibot/internal/domain"
	"github.com/lolvely/blibot/internal/render"
)

func genClientToken() string {
	return uuid.NewString()
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

// adminOnly gates mutating endpoints behind the shared ops secret.
func adminOnly(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" || c.GetHeader("X-Admin-Secret") != secret {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

type sessionSummary struct {
	ID       domain.MessageID `json:"id"`
	Channel  domain.ChannelID `json:"channel"`
	Mode     domain.Mode      `json:"mode"`
	Start    string           `json:"start_time"`
	Roster   int              `json:"roster"`
	Waitlist int              `json:"waitlist"`
	LastCall int              `json:"last_call"`
}

func SetupRouter(mode, secret string, registry *app.Registry, orch *app.Orchestrator) *gin.Engine {
	if mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(secret))
	r.Use(sessions.Sessions("BlibotOps", store))
	r.Use(ClientTokenMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": registry.Len()})
	})

	api := r.Group("/api")

	api.GET("/sessions", func(c *gin.Context) {
		out := []sessionSummary{}
		for _, id := range registry.IDs() {
			s := registry.Snapshot(id)
			if s == nil {
				continue
			}
			out = append(out, sessionSummary{
				ID:       s.ID,
				Channel:  s.ChannelID,
				Mode:     s.Mode,
				Start:    s.StartTime,
				Roster:   len(s.Members),
				Waitlist: len(s.Wait),
				LastCall: len(s.Last),
			})
		}
		c.JSON(http.StatusOK, out)
	})

	api.GET("/sessions/:id", func(c *gin.Context) {
		s := registry.Snapshot(domain.MessageID(c.Param("id")))
		if s == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": s.ID, "view": render.Session(s)})
	})

	admin := api.Group("", adminOnly(secret))

	admin.DELETE("/sessions/:id", func(c *gin.Context) {
		id := domain.MessageID(c.Param("id"))
		if !registry.Has(id) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
			return
		}
		registry.Delete(id)
		log.Info().Str("module", "adapters.http").Str("session", string(id)).Msg("session deleted via ops api")
		c.Status(http.StatusNoContent)
	})

	admin.DELETE("/sessions/:id/members/:uid", func(c *gin.Context) {
		st, err := orch.RemoveParticipant(c.Request.Context(), domain.MessageID(c.Param("id")), domain.UserID(c.Param("uid")))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if st == core.StatusNotPresent {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not on any list"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": st.String()})
	})

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
