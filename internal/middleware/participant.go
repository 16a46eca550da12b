package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const participantKey = "participant_id"

// HeaderParticipantID carries the caller-supplied participant id. It is an
// opaque token trusted as-is; there is no identity verification.
const HeaderParticipantID = "X-Participant-ID"

// RequireParticipant rejects commands that arrive without a participant id.
func RequireParticipant() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderParticipantID)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing " + HeaderParticipantID + " header"})
			return
		}
		c.Set(participantKey, id)
		c.Next()
	}
}

// ParticipantID returns the id set by RequireParticipant.
func ParticipantID(c *gin.Context) string {
	id, _ := c.Get(participantKey)
	s, _ := id.(string)
	return s
}
