package handlers

import (
	"net/http"
)

type healthResponse struct {
	OK     bool `json:"ok"`
	Ollama struct {
		BaseURL string `json:"baseUrl"`
		Model   string `json:"model"`
	} `json:"ollama"`
	StableDiffusion struct {
		URL string `json:"url"`
	} `json:"stableDiffusion"`
	AssetsDir string `json:"assetsDir"`
}

// Health reports the configured upstreams without contacting them.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	var resp healthResponse
	resp.OK = true
	resp.Ollama.BaseURL = a.Config.OllamaBaseURL
	resp.Ollama.Model = a.Config.OllamaModel
	resp.StableDiffusion.URL = a.Config.SDWebUIURL
	resp.AssetsDir = a.Config.AssetsDir
	a.json(w, http.StatusOK, resp)
}
