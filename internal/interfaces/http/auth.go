package httpinterface

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-yield/internal/core/domain"
)

var errUnauthenticated = errors.New("missing or invalid bearer token")

type callerKey struct{}

// authenticate rejects requests without a valid HS256 bearer token signed
// with secret. The subject of the token is the address of the caller.
func authenticate(secret []byte) func(http.Handler) http.Handler {
	parser := &jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
	keyFunc := func(*jwt.Token) (interface{}, error) { return secret, nil }

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if tokenString == "" {
				writeJSONError(w, http.StatusUnauthorized, errUnauthenticated)
				return
			}

			claims := &jwt.StandardClaims{}
			token, err := parser.ParseWithClaims(tokenString, claims, keyFunc)
			if err != nil || !token.Valid || !common.IsHexAddress(claims.Subject) {
				log.WithError(err).Debug("http: rejected bearer token")
				writeJSONError(w, http.StatusUnauthorized, errUnauthenticated)
				return
			}

			caller := common.HexToAddress(claims.Subject)
			ctx := context.WithValue(r.Context(), callerKey{}, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticatedCaller(r *http.Request) (common.Address, bool) {
	caller, ok := r.Context().Value(callerKey{}).(common.Address)
	return caller, ok
}

// callerFromRequest returns the authenticated caller if the request carries
// one, otherwise the address in the request body. A body address other than
// the authenticated caller is rejected.
func callerFromRequest(r *http.Request, bodyCaller string) (common.Address, error) {
	authenticated, ok := authenticatedCaller(r)
	if !ok {
		return parseAddress(bodyCaller)
	}
	if bodyCaller == "" {
		return authenticated, nil
	}
	caller, err := parseAddress(bodyCaller)
	if err != nil {
		return common.Address{}, err
	}
	if caller != authenticated {
		return common.Address{}, fmt.Errorf(
			"%w: token issued to %s", domain.ErrUnauthorized, authenticated,
		)
	}
	return caller, nil
}

func writeCallerError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrUnauthorized) {
		writeError(w, err)
		return
	}
	writeBadRequest(w, err)
}
