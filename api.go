package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
	"golang.org/x/time/rate"
)

type roomResponse struct {
	ID          string          `json:"id"`
	UsedLetters map[string]bool `json:"usedLetters"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(cfg *Config, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	securityHeaders(cfg, w)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// createRoomHandler allocates a new room. Creation is rate limited so a
// misbehaving client can't fill the registry.
func createRoomHandler(cfg *Config, rg *Registry) httprouter.Handle {
	limiter := rate.NewLimiter(rate.Every(time.Second), 5)

	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if !limiter.Allow() {
			writeJSON(cfg, w, http.StatusTooManyRequests, errorResponse{Error: "too many rooms created, slow down"})
			return
		}

		hub := rg.CreateRoom()
		id, usedLetters, _ := hub.roomInfo()

		log.Debug().Str("room", id).Str("client", realIP(r)).Msg("room creation requested")

		writeJSON(cfg, w, http.StatusCreated, roomResponse{
			ID:          id,
			UsedLetters: usedLetters,
		})
	}
}

// getRoomHandler looks a room up before the client opens its socket.
// Locked rooms are reported as such so the client can tell "no such room"
// from "round in progress".
func getRoomHandler(cfg *Config, rg *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		hub, err := rg.GetRoom(ps.ByName("roomid"))
		if errors.Is(err, ErrRoomNotFound) {
			writeJSON(cfg, w, http.StatusNotFound, errorResponse{Error: ErrRoomNotFound.Error()})
			return
		}

		id, usedLetters, locked := hub.roomInfo()
		if locked {
			writeJSON(cfg, w, http.StatusLocked, errorResponse{Error: ErrRoomLocked.Error()})
			return
		}

		writeJSON(cfg, w, http.StatusOK, roomResponse{
			ID:          id,
			UsedLetters: usedLetters,
		})
	}
}

// qrHandler generates a PNG QR code for the current room URL.
func qrHandler(rg *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if _, err := rg.GetRoom(ps.ByName("roomid")); err != nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		// We are at /room/:roomid/qr; strip trailing "/qr" to get the room URL.
		path := strings.TrimSuffix(r.URL.Path, "/qr")

		url := scheme + "://" + r.Host + path

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}
