package www

import (
	"encoding/json"
	"net/http"

	"wmsbridge/store"
)

func (h *Handlers) apiListRobots(w http.ResponseWriter, r *http.Request) {
	robots, err := h.db.ListRobots()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, robots)
}

func (h *Handlers) apiCreateRobot(w http.ResponseWriter, r *http.Request) {
	var robot store.Robot
	if err := json.NewDecoder(r.Body).Decode(&robot); err != nil {
		h.jsonError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if robot.Name == "" {
		h.jsonError(w, "name is required", http.StatusBadRequest)
		return
	}
	if err := h.db.CreateRobot(&robot); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, robot)
}

func (h *Handlers) apiUpdateRobot(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	var robot store.Robot
	if err := json.NewDecoder(r.Body).Decode(&robot); err != nil {
		h.jsonError(w, "invalid request", http.StatusBadRequest)
		return
	}
	robot.ID = id
	if err := h.db.UpdateRobot(&robot); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, robot)
}

func (h *Handlers) apiDeleteRobot(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := h.db.DeleteRobot(id); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, map[string]bool{"ok": true})
}

func (h *Handlers) apiConnectRobot(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	robot, err := h.db.GetRobot(id)
	if err != nil {
		h.jsonError(w, "not found", http.StatusNotFound)
		return
	}
	if err := h.fleet.Connect(r.Context(), robot.Name, robot.IP); err != nil {
		h.jsonOK(w, map[string]any{"connected": false, "error": err.Error()})
		return
	}
	h.jsonOK(w, map[string]any{"connected": true, "robot": robot.Name})
}

func (h *Handlers) apiDisconnectRobot(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	robot, err := h.db.GetRobot(id)
	if err != nil {
		h.jsonError(w, "not found", http.StatusNotFound)
		return
	}
	h.fleet.Disconnect(robot.Name)
	h.jsonOK(w, map[string]any{"connected": false, "robot": robot.Name})
}
