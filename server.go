package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"

	"i4.energy/across/simmodem/archive"
	"i4.energy/across/simmodem/at"
	"i4.energy/across/simmodem/modem"
)

// H is a shorthand for a JSON object.
type H map[string]any

// Server handles incoming HTTP requests for interacting with the
// configured modem instance. Every request is run through the Worker, so
// requests reach the modem one at a time.
type Server struct {
	Logger *slog.Logger
	Worker *modem.Worker
	// Archive is optional; without it the archive routes answer 503.
	Archive *archive.Store

	once   sync.Once
	router *mux.Router
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.once.Do(s.routes)
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/info", s.handleInfo).Methods(http.MethodGet)
	api.HandleFunc("/reconnect", s.handleReconnect).Methods(http.MethodPost)

	api.HandleFunc("/audio/volume", s.handleVolume).Methods(http.MethodGet)
	api.HandleFunc("/audio/volume", s.handleSetVolume).Methods(http.MethodPut)
	api.HandleFunc("/audio/echo-suppression", s.handleEchoSuppression).Methods(http.MethodPut)
	api.HandleFunc("/audio/tdd", s.handleImproveTDD).Methods(http.MethodPost)

	api.HandleFunc("/network/registration", s.handleRegistration).Methods(http.MethodGet)
	api.HandleFunc("/network/mode", s.handleNetworkMode).Methods(http.MethodGet)
	api.HandleFunc("/network/mode", s.handleSetNetworkMode).Methods(http.MethodPut)
	api.HandleFunc("/network/operator", s.handleOperator).Methods(http.MethodGet)
	api.HandleFunc("/network/signal", s.handleSignal).Methods(http.MethodGet)

	api.HandleFunc("/sim/status", s.handleSIMStatus).Methods(http.MethodGet)
	api.HandleFunc("/sim/number", s.handlePhoneNumber).Methods(http.MethodGet)

	api.HandleFunc("/gps", s.handleGPSStatus).Methods(http.MethodGet)
	api.HandleFunc("/gps/start", s.handleStartGPS).Methods(http.MethodPost)
	api.HandleFunc("/gps/stop", s.handleStopGPS).Methods(http.MethodPost)
	api.HandleFunc("/gps/coordinates", s.handleGPSCoordinates).Methods(http.MethodGet)

	api.HandleFunc("/sms", s.handleListSMS).Methods(http.MethodGet)
	api.HandleFunc("/sms", s.handleSMS).Methods(http.MethodPost)
	api.HandleFunc("/sms", s.handleDeleteAllSMS).Methods(http.MethodDelete)
	api.HandleFunc("/sms/{slot:[0-9]+}", s.handleReadSMS).Methods(http.MethodGet)
	api.HandleFunc("/sms/{slot:[0-9]+}", s.handleDeleteSMS).Methods(http.MethodDelete)

	api.HandleFunc("/call/dial", s.handleDial).Methods(http.MethodPost)
	api.HandleFunc("/call/answer", s.handleAnswer).Methods(http.MethodPost)
	api.HandleFunc("/call/hangup", s.handleHangup).Methods(http.MethodPost)

	api.HandleFunc("/archive", s.handleArchive).Methods(http.MethodGet)
	api.HandleFunc("/archive/sync", s.handleArchiveSync).Methods(http.MethodPost)

	s.router = r
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	respondJSON(w, statusCode, ErrorResponse{Message: message})
}

func respondJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps a modem error to the HTTP status reported to the client.
func statusFor(err error) int {
	switch {
	case errors.Is(err, modem.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, modem.ErrNotReady),
		errors.Is(err, modem.ErrConnectionLost),
		errors.Is(err, modem.ErrAlreadyClosed),
		errors.Is(err, modem.ErrWorkerStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, modem.ErrDecode),
		errors.Is(err, modem.ErrCommandFailed),
		errors.Is(err, modem.ErrUnsupportedCommand),
		errors.Is(err, modem.ErrHandshakeFailed),
		errors.Is(err, modem.ErrTransport):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// run executes fn on the modem and writes its result as JSON. A nil result
// answers 204.
func (s *Server) run(w http.ResponseWriter, r *http.Request, op string, fn func(*modem.Modem) (any, error)) {
	var result any
	err := s.Worker.Do(r.Context(), func(m *modem.Modem) error {
		var err error
		result, err = fn(m)
		return err
	})
	if err != nil {
		s.Logger.Error("Modem operation failed", "op", op, "error", err)
		s.sendError(w, err.Error(), statusFor(err))
		return
	}
	if result == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// slot parses the {slot} route variable. The route pattern only admits
// digits, but the value can still overflow an int.
func (s *Server) slot(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(mux.Vars(r)["slot"])
	if err != nil {
		s.sendError(w, fmt.Sprintf("invalid slot %q", mux.Vars(r)["slot"]), http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, "info", func(m *modem.Modem) (any, error) {
		info := H{}
		for _, f := range []struct {
			key string
			fn  func() (string, error)
		}{
			{"manufacturer", m.Manufacturer},
			{"model", m.Model},
			{"serial_number", m.SerialNumber},
			{"firmware", m.FirmwareVersion},
		} {
			v, err := f.fn()
			if err != nil {
				return nil, err
			}
			info[f.key] = v
		}
		return info, nil
	})
}

func (s *Server) handleReconnect(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, "reconnect", func(m *modem.Modem) (any, error) {
		if err := m.Reconnect(r.Context()); err != nil {
			return nil, err
		}
		return H{"state": m.State().String()}, nil
	})
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, "volume", func(m *modem.Modem) (any, error) {
		level, err := m.Volume()
		if err != nil {
			return nil, err
		}
		return H{"level": level}, nil
	})
}

func (s *Server) handleSetVolume(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Level int `json:"level"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	s.run(w, r, "set volume", func(m *modem.Modem) (any, error) {
		return nil, m.SetVolume(req.Level)
	})
}

func (s *Server) handleEchoSuppression(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	s.run(w, r, "echo suppression", func(m *modem.Modem) (any, error) {
		if req.Enabled {
			return nil, m.EnableEchoSuppression()
		}
		return nil, m.DisableEchoSuppression()
	})
}

func (s *Server) handleImproveTDD(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, "improve tdd", func(m *modem.Modem) (any, error) {
		return nil, m.ImproveTDD()
	})
}

func (s *Server) handleRegistration(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, "registration", func(m *modem.Modem) (any, error) {
		stat, err := m.RegistrationStatus()
		if err != nil {
			return nil, err
		}
		return H{"status": int(stat), "description": stat.String()}, nil
	})
}

func (s *Server) handleNetworkMode(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, "network mode", func(m *modem.Modem) (any, error) {
		mode, err := m.NetworkMode()
		if err != nil {
			return nil, err
		}
		return H{"mode": int(mode), "name": mode.String()}, nil
	})
}

func (s *Server) handleSetNetworkMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode int `json:"mode"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	s.run(w, r, "set network mode", func(m *modem.Modem) (any, error) {
		return nil, m.SetNetworkMode(modem.NetworkMode(req.Mode))
	})
}

func (s *Server) handleOperator(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, "operator", func(m *modem.Modem) (any, error) {
		name, err := m.NetworkName()
		if err != nil {
			return nil, err
		}
		operator, err := m.NetworkOperator()
		if err != nil {
			return nil, err
		}
		return H{"name": name, "operator": operator}, nil
	})
}

func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, "signal", func(m *modem.Modem) (any, error) {
		raw, err := m.SignalQuality()
		if err != nil {
			return nil, err
		}
		dbm, err := m.SignalQualityDB()
		if err != nil {
			return nil, err
		}
		quality, err := m.SignalQualityRange()
		if err != nil {
			return nil, err
		}
		return H{"raw": raw, "dbm": dbm, "quality": quality.String()}, nil
	})
}

func (s *Server) handleSIMStatus(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, "sim status", func(m *modem.Modem) (any, error) {
		status, err := m.SIMStatus()
		if err != nil {
			return nil, err
		}
		return H{
			"status":       status,
			"ready":        status == at.SimReady,
			"pin_required": status == at.SimPin,
		}, nil
	})
}

func (s *Server) handlePhoneNumber(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, "phone number", func(m *modem.Modem) (any, error) {
		number, err := m.PhoneNumber()
		if err != nil {
			return nil, err
		}
		return H{"number": number}, nil
	})
}

func (s *Server) handleGPSStatus(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, "gps status", func(m *modem.Modem) (any, error) {
		status, err := m.GPSStatus()
		if err != nil {
			return nil, err
		}
		return H{"status": status}, nil
	})
}

func (s *Server) handleStartGPS(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, "start gps", func(m *modem.Modem) (any, error) {
		return nil, m.StartGPS()
	})
}

func (s *Server) handleStopGPS(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, "stop gps", func(m *modem.Modem) (any, error) {
		return nil, m.StopGPS()
	})
}

func (s *Server) handleGPSCoordinates(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, "gps coordinates", func(m *modem.Modem) (any, error) {
		return m.GPSCoordinates()
	})
}

func (s *Server) handleListSMS(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, "list sms", func(m *modem.Modem) (any, error) {
		list, err := m.ListSMS()
		if err != nil {
			return nil, err
		}
		if list == nil {
			list = []modem.SMS{}
		}
		return list, nil
	})
}

func (s *Server) handleReadSMS(w http.ResponseWriter, r *http.Request) {
	n, ok := s.slot(w, r)
	if !ok {
		return
	}
	s.run(w, r, "read sms", func(m *modem.Modem) (any, error) {
		return m.ReadSMS(n)
	})
}

// handleSMS processes incoming HTTP POST requests to send SMS messages
func (s *Server) handleSMS(w http.ResponseWriter, r *http.Request) {
	var req smsRequest
	if !s.decode(w, r, &req) {
		return
	}

	if req.To == "" || req.Message == "" {
		s.sendError(w, "both 'to' and 'message' fields are required", http.StatusBadRequest)
		return
	}

	s.run(w, r, "send sms", func(m *modem.Modem) (any, error) {
		line, err := m.SendSMS(req.To, req.Message)
		if err != nil {
			return nil, err
		}
		s.Logger.Info("SMS sent successfully", "to", req.To, "message_length", len(req.Message))
		return H{"confirmation": line}, nil
	})
}

func (s *Server) handleDeleteSMS(w http.ResponseWriter, r *http.Request) {
	n, ok := s.slot(w, r)
	if !ok {
		return
	}
	s.run(w, r, "delete sms", func(m *modem.Modem) (any, error) {
		return nil, m.DeleteSMS(n)
	})
}

func (s *Server) handleDeleteAllSMS(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, "delete all sms", func(m *modem.Modem) (any, error) {
		return nil, m.DeleteAllSMS()
	})
}

func (s *Server) handleDial(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Number string `json:"number"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	s.run(w, r, "dial", func(m *modem.Modem) (any, error) {
		line, err := m.Dial(req.Number)
		if err != nil {
			return nil, err
		}
		return H{"result": line}, nil
	})
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, "answer", func(m *modem.Modem) (any, error) {
		line, err := m.Answer()
		if err != nil {
			return nil, err
		}
		return H{"result": line}, nil
	})
}

func (s *Server) handleHangup(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, "hangup", func(m *modem.Modem) (any, error) {
		line, err := m.Hangup()
		if err != nil {
			return nil, err
		}
		return H{"result": line}, nil
	})
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	if s.Archive == nil {
		s.sendError(w, "archive disabled", http.StatusServiceUnavailable)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.sendError(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	msgs, err := s.Archive.List(limit)
	if err != nil {
		s.Logger.Error("Failed to list archive", "error", err)
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if msgs == nil {
		msgs = []archive.Message{}
	}
	respondJSON(w, http.StatusOK, msgs)
}

// handleArchiveSync copies the messages on the SIM into the archive.
func (s *Server) handleArchiveSync(w http.ResponseWriter, r *http.Request) {
	if s.Archive == nil {
		s.sendError(w, "archive disabled", http.StatusServiceUnavailable)
		return
	}

	var list []modem.SMS
	err := s.Worker.Do(r.Context(), func(m *modem.Modem) error {
		var err error
		list, err = m.ListSMS()
		return err
	})
	if err != nil {
		s.Logger.Error("Modem operation failed", "op", "archive sync", "error", err)
		s.sendError(w, err.Error(), statusFor(err))
		return
	}

	added, err := s.Archive.Save(list)
	if err != nil {
		s.Logger.Error("Failed to archive messages", "error", err)
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.Logger.Info("Archive synced", "on_sim", len(list), "added", added)
	respondJSON(w, http.StatusOK, H{"on_sim": len(list), "added": added})
}
