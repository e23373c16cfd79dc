// Package view renders page payloads for the client-side app, as JSON for
// X-Inertia visits and as an HTML shell with the payload embedded otherwise.
package view

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/gin-gonic/gin/render"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page 页面数据
type Page struct {
	Component string      `json:"component"`
	Props     interface{} `json:"props"`
	URL       string      `json:"url"`
	Version   string      `json:"version"`
}

// Renderer 页面渲染器
type Renderer struct {
	version string
	title   string
	tmpl    *template.Template
}

type shellData struct {
	Title    string
	PageJSON string
}

func NewRenderer(version, title string) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{version: version, title: title, tmpl: tmpl}, nil
}

// Version 当前前端资源版本
func (r *Renderer) Version() string {
	return r.version
}

// Render writes component with props in the format the client asked for.
func (r *Renderer) Render(c *gin.Context, component string, props interface{}) {
	page := Page{
		Component: component,
		Props:     props,
		URL:       c.Request.URL.RequestURI(),
		Version:   r.version,
	}

	c.Writer.Header().Add("Vary", "X-Inertia")

	if c.GetHeader("X-Inertia") == "true" {
		// 资源版本变化时让客户端整页刷新
		if c.Request.Method == http.MethodGet && c.GetHeader("X-Inertia-Version") != "" &&
			c.GetHeader("X-Inertia-Version") != r.version {
			c.Header("X-Inertia-Location", page.URL)
			c.Status(http.StatusConflict)
			return
		}
		c.Header("X-Inertia", "true")
		c.JSON(http.StatusOK, page)
		return
	}

	if c.NegotiateFormat(binding.MIMEHTML, binding.MIMEJSON) == binding.MIMEJSON {
		c.JSON(http.StatusOK, page)
		return
	}

	data, err := json.Marshal(page)
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.Render(http.StatusOK, render.HTML{
		Template: r.tmpl,
		Name:     "index.html",
		Data:     shellData{Title: r.title, PageJSON: string(data)},
	})
}
