// Copyright 2015 by the Authors
// This file is part of the go-core library.
//
// The go-core library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-core library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-core library. If not, see <http://www.gnu.org/licenses/>.

package tools

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

// Server exposes a Registry over a small HTTP API, useful for driving
// the dispatcher from a browser-based playground or from an external
// process that doesn't embed the VM directly: GET /tools lists
// registered providers, POST /tools/:name invokes one.
type Server struct {
	reg    *Registry
	router *httprouter.Router
}

// NewServer wraps reg in an http.Handler with permissive CORS, so a
// local dev UI on a different origin can call it directly.
func NewServer(reg *Registry) http.Handler {
	s := &Server{reg: reg, router: httprouter.New()}
	s.router.GET("/tools", s.handleList)
	s.router.POST("/tools/:name", s.handleInvoke)
	return cors.AllowAll().Handler(s.router)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"tools": s.reg.List()})
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	name := ps.ByName("name")
	var args interface{}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}

	resp, err := s.reg.Dispatch(r.Context(), &Request{ToolID: name, Args: args})
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
