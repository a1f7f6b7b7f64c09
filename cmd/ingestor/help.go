package main

import (
	"net/http"
)

const helpPage = `
<html>
    <head>
        <title>JS error logger server</title>
    </head>
    <body>
        <h1>JS error logger server.</h1>
        <p>
            POST form fields named debug, info, warning or error to /log/.
            Each field becomes one line in the log file.
        </p>
    </body>
</html>`

func HandleHelp(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(helpPage))
}

func HandleForbidden(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusForbidden)
}
