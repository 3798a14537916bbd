// internals/middlewares/auth/auth_middleware.go
package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog/log"

	"komunitas_backend/internals/constants"
)

type Options struct {
	Secret string
	// toleransi clock skew untuk exp
	Skew time.Duration
}

// AuthMiddleware: verifikasi JWT HS256 lalu simpan user_id & role ke Locals.
// Token dikeluarkan oleh layanan auth terpisah; di sini hanya diverifikasi.
func AuthMiddleware(opts Options) fiber.Handler {
	if opts.Skew <= 0 {
		opts.Skew = 30 * time.Second
	}
	return func(c *fiber.Ctx) error {
		// 1) Ambil Authorization (atau cookie)
		tokenString, err := extractBearerToken(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		// 2) Parse & verifikasi signature (exp dicek manual di bawah)
		if opts.Secret == "" {
			log.Error().Msg("JWT_SECRET kosong")
			return fiber.NewError(fiber.StatusInternalServerError, "Missing JWT Secret")
		}

		claims := jwt.MapClaims{}
		parser := jwt.Parser{SkipClaimsValidation: true, ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
		if _, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(opts.Secret), nil
		}); err != nil {
			log.Debug().Err(err).Msg("gagal parse token")
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Token parse error")
		}

		// 3) Validasi exp
		if err := validateTokenExpiry(claims, opts.Skew); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Token expired")
		}

		// 4) user_id
		userID, err := extractUserID(claims)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Invalid or missing user ID")
		}
		c.Locals(constants.LocUserID, userID.String())

		// 5) role & nama
		storeBasicClaimsToLocals(c, claims)
		return c.Next()
	}
}
