package server

import (
	"crypto/tls"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/joonaskit/Summa/handlers"
	"github.com/urfave/negroni"
	"golang.org/x/crypto/acme/autocert"
)

// Handlers collects the HTTP handlers wired in main.
type Handlers struct {
	Rag          *handlers.RagHandler
	Files        *handlers.FilesHandler
	Summary      *handlers.SummaryHandler
	Tags         *handlers.TagsHandler
	Integrations *handlers.IntegrationsHandler
	LLM          *handlers.LLMHandler
}

func SetupRoutes(h Handlers) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message": "Summa API is running"}`))
	}).Methods("GET")

	// RAG ingestion and query pipeline
	r.HandleFunc("/rag/ingest", h.Rag.Ingest).Methods("POST")
	r.HandleFunc("/rag/ingest_uploaded_file", h.Rag.IngestUploadedFile).Methods("POST")
	r.HandleFunc("/rag/query", h.Rag.Query).Methods("POST")
	r.HandleFunc("/rag/query/stream", h.Rag.QueryStream).Methods("POST")

	// Document library
	r.HandleFunc("/files", h.Files.List).Methods("GET")
	r.HandleFunc("/files/content", h.Files.Content).Methods("GET")
	r.HandleFunc("/files/upload", h.Files.Upload).Methods("POST")
	r.HandleFunc("/files/delete", h.Files.Delete).Methods("DELETE")

	// Summaries and tags
	r.HandleFunc("/files/summary", h.Summary.GenerateSummary).Methods("POST")
	r.HandleFunc("/files/summary", h.Summary.GetSummary).Methods("GET")
	r.HandleFunc("/files/suggest_tags", h.Summary.SuggestTags).Methods("POST")
	r.HandleFunc("/files/tags", h.Tags.UpdateFileTags).Methods("POST")
	r.HandleFunc("/tags", h.Tags.List).Methods("GET")
	r.HandleFunc("/tags", h.Tags.Create).Methods("POST")
	r.HandleFunc("/tags/{name}", h.Tags.Delete).Methods("DELETE")

	// Integrations
	r.HandleFunc("/hedgedoc", h.Integrations.FetchHedgeDoc).Methods("POST")
	r.HandleFunc("/hedgedoc/history", h.Integrations.FetchHedgeDocHistory).Methods("POST")
	r.HandleFunc("/hedgedoc/download", h.Integrations.DownloadHedgeDoc).Methods("POST")
	r.HandleFunc("/github/{username}", h.Integrations.GitHubActivity).Methods("GET")

	// LLM endpoint introspection
	r.HandleFunc("/llm/models", h.LLM.Models).Methods("GET")
	r.HandleFunc("/llm/embedding_models", h.LLM.EmbeddingModels).Methods("GET")
	r.HandleFunc("/llm/summary", h.Summary.SummarizeContent).Methods("GET")

	return r
}

// ServeProduction builds the server when we operate in a production environment.
func ServeProduction(n *negroni.Negroni, domains []string, certCacheDir string) {
	// Configure autocert settings
	autocertManager := autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(certCacheDir),
	}

	// Listen for HTTP requests on port 80 in a new goroutine. Use
	// autocertManager.HTTPHandler(nil) as the handler. This will send ACME
	// "http-01" challenge responses as necessary, and 302 redirect all other
	// requests to HTTPS.
	go func() {
		srv := &http.Server{
			Addr:         ":80",
			Handler:      autocertManager.HTTPHandler(nil),
			IdleTimeout:  time.Minute,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		}

		err := srv.ListenAndServe()
		log.Fatal(err)
	}()

	// Configure the TLS config to use the autocertManager.GetCertificate function.
	tlsConfig := &tls.Config{
		GetCertificate:           autocertManager.GetCertificate,
		PreferServerCipherSuites: true,
		CurvePreferences:         []tls.CurveID{tls.X25519, tls.CurveP256},
	}

	srv := &http.Server{
		Addr:         ":443",
		Handler:      n,
		TLSConfig:    tlsConfig,
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	err := srv.ListenAndServeTLS("", "") // Key and cert provided automatically by autocert.
	log.Fatal(err)
}

// ServeDevelopment starts the server when we operate in a dev environment.
func ServeDevelopment(s *http.Server) {
	log.Fatal(s.ListenAndServe())
}
