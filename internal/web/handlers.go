package web

import (
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/blocto/solana-go-sdk/common"

	"token-forge/internal/domain"
	"token-forge/internal/form"
	"token-forge/internal/wallet"
)

// maxFormBytes bounds a multipart form: the image plus text fields.
const maxFormBytes = 4 * domain.MaxImageBytes

// pageData is the template input for the form page.
type pageData struct {
	form.View
	Preview      template.URL
	Cluster      string
	WalletKey    string
	ServerWallet bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Ensure(w, r)
	view := sess.Form.Snapshot()

	data := pageData{
		View:    view,
		Preview: template.URL(view.ImagePreview), // built from an allow-listed type and base64
		Cluster: s.cluster,
	}
	if wl := s.walletFor(sess); wl != nil {
		if key, ok := wl.PublicKey(); ok {
			data.WalletKey = key.ToBase58()
		}
		_, isBridge := wl.(*wallet.Bridge)
		data.ServerWallet = !isBridge
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.Error().Err(err).Msg("render page")
	}
}

// handleImage stores the text inputs and the picked image, then redisplays
// the form with a preview.
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Ensure(w, r)
	if err := s.readForm(w, r, sess.Form); err != nil {
		s.logger.Debug().Err(err).Msg("image rejected")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Ensure(w, r)

	if err := s.readForm(w, r, sess.Form); err != nil {
		if errors.Is(err, form.ErrInProgress) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := sess.Form.Begin(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	req := sess.Form.Request()
	s.logger.Info().Str("session", sess.ID).Stringer("request", req).Msg("token creation requested")

	result, err := s.flow.Submit(r.Context(), s.walletFor(sess), req)
	sess.Form.Finish(result, err)
	s.recordOutcome(result, err)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleCloseResult(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.sessions.Lookup(r); ok {
		sess.Form.CloseResult()
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// readForm applies the posted fields and, if a file was picked, the image.
// It returns the image error so callers can stop before submitting. A body
// over the form limit can only be an oversize image: it raises the size
// notification and leaves the stored inputs untouched.
func (s *Server) readForm(w http.ResponseWriter, r *http.Request, st *form.State) error {
	if st.Busy() {
		return form.ErrInProgress
	}
	if r.ContentLength > maxFormBytes {
		st.RejectImage(domain.ErrImageTooLarge)
		return domain.ErrImageTooLarge
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseMultipartForm(maxFormBytes); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			st.RejectImage(domain.ErrImageTooLarge)
			return domain.ErrImageTooLarge
		case !errors.Is(err, http.ErrNotMultipart):
			return err
		}
	}

	if err := st.SetFields(r.FormValue("name"), r.FormValue("symbol"), form.ParseSupply(r.FormValue("supply"))); err != nil {
		return err
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return nil // no new image picked
	}
	defer file.Close()

	data, contentType, err := readImage(file, header)
	if err != nil {
		return err
	}
	return st.SetImage(header.Filename, contentType, data)
}

// readImage reads at most one byte past the size limit so oversize files are
// detected without buffering them whole.
func readImage(file multipart.File, header *multipart.FileHeader) ([]byte, string, error) {
	data, err := io.ReadAll(io.LimitReader(file, domain.MaxImageBytes+1))
	if err != nil {
		return nil, "", err
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

func (s *Server) handleWalletSocket(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Lookup(r)
	if !ok {
		http.Error(w, "no session", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("wallet socket upgrade failed")
		return
	}

	logger := s.logger.With().Str("session", sess.ID).Logger()
	bridge := wallet.NewBridge(conn, s.bridgeConfig, logger)
	sess.attach(bridge)
	defer sess.detach(bridge)

	err = bridge.Serve(r.Context(), func(key common.PublicKey) {
		logger.Debug().Str("wallet", key.ToBase58()).Msg("session wallet set")
	})
	if err != nil {
		logger.Debug().Err(err).Msg("wallet socket closed")
	}
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status           string `json:"status"`
	Uptime           string `json:"uptime"`
	Cluster          string `json:"cluster"`
	Sessions         int    `json:"sessions"`
	ConnectedWallets int    `json:"connected_wallets"`
	ServerWallet     string `json:"server_wallet,omitempty"`
	Submissions      int    `json:"submissions"`
	Successes        int    `json:"successes"`
	Failures         int    `json:"failures"`
	LastMint         string `json:"last_mint,omitempty"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:      "running",
		Uptime:      time.Since(s.started).Round(time.Second).String(),
		Cluster:     s.cluster,
		Submissions: s.submissions,
		Successes:   s.successes,
		Failures:    s.failures,
		LastMint:    s.lastMint,
	}
	s.mu.Unlock()

	resp.Sessions = s.sessions.Len()
	resp.ConnectedWallets = s.sessions.ConnectedWallets()
	if s.serverWallet != nil {
		if key, ok := s.serverWallet.PublicKey(); ok {
			resp.ServerWallet = key.ToBase58()
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
