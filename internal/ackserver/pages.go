// internal/ackserver/pages.go
package ackserver

import (
	"html/template"
	"net/http"

	commonerrors "github.com/AdeptTechSolutions/Auto-GRC/internal/common/errors"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/models"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <style>
        body {
            font-family: Arial, sans-serif;
            max-width: 600px;
            margin: 50px auto;
            padding: 20px;
            background-color: #f5f5f5;
        }
        .container {
            background: white;
            padding: 30px;
            border-radius: 10px;
            box-shadow: 0 2px 10px rgba(0,0,0,0.1);
            text-align: center;
        }
        .icon { font-size: 48px; margin-bottom: 20px; }
        .success { color: #28a745; }
        .warning { color: #dc3545; }
        h1 { color: #333; }
    </style>
</head>
<body>
    <div class="container">
        <div class="icon {{.IconClass}}">{{.Icon}}</div>
        <h1>{{.Title}}</h1>
        <p>{{.Message}}</p>
        <p><em>You can now close this tab. No further action is required.</em></p>
    </div>
</body>
</html>
`))

type pageData struct {
	Title     string
	Message   string
	Icon      string
	IconClass string
}

func (s *Server) writeConfirmation(w http.ResponseWriter, status models.AckStatus) {
	data := pageData{
		Title:     "Policy Acknowledged Successfully!",
		Message:   "Thank you for acknowledging this policy. Your response has been recorded.",
		Icon:      "✅",
		IconClass: "success",
	}
	if status == models.AckDeclined {
		data = pageData{
			Title:     "Policy Non-Acknowledgement Recorded",
			Message:   "Your non-acknowledgement has been recorded. HR will contact you for further discussion.",
			Icon:      "⚠",
			IconClass: "warning",
		}
	}
	renderPage(w, http.StatusOK, data)
}

func renderErrorPage(w http.ResponseWriter, status int, stdErr *commonerrors.StandardError) {
	renderPage(w, status, pageData{
		Title:     "Acknowledgement Failed",
		Message:   stdErr.Message,
		Icon:      "❌",
		IconClass: "warning",
	})
}

func renderPage(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	pageTemplate.Execute(w, data)
}
