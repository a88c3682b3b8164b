package http

import (
	"github.com/membergate/api/internal/domain"
	"github.com/membergate/api/internal/infrastructure/mail"
	redisinfra "github.com/membergate/api/internal/infrastructure/redis"
	"github.com/membergate/api/internal/infrastructure/token"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	MemberStore       domain.MemberStore
	TokenStore        *redisinfra.TokenStore
	VerificationStore *redisinfra.VerificationStore
	Mailer            mail.Mailer
	Codec             *token.Codec
}
