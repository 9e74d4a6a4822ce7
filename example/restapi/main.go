package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iwakura-enterprises/kirara"
)

const metricsAddr = ":9464"

// Post is a JSONPlaceholder blog post. Embedding kirara.ClientResponse
// gives every deserialized Post a back-reference to the client it came
// from.
type Post struct {
	kirara.ClientResponse

	ID     int    `json:"id"`
	UserID int    `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// PlaceholderAPI wraps JSONPlaceholder behind typed request builders.
type PlaceholderAPI struct {
	*kirara.Client
}

func NewPlaceholderAPI(client *kirara.Client) *PlaceholderAPI {
	return &PlaceholderAPI{Client: client}
}

func (a *PlaceholderAPI) GetPost(id string) *kirara.Request[Post] {
	return kirara.NewRequest[Post](a.Client, http.MethodGet, "/posts/{id}").
		WithPathParameter(kirara.PathParamOf("id", id))
}

func (a *PlaceholderAPI) ListPosts(userID string) *kirara.Request[[]Post] {
	return kirara.NewRequest[[]Post](a.Client, http.MethodGet, "/posts").
		WithRequestQuery(kirara.QueryOf("userId", userID))
}

func (a *PlaceholderAPI) CreatePost(post Post) *kirara.Request[Post] {
	return kirara.NewRequest[Post](a.Client, http.MethodPost, "/posts").
		WithHeader(kirara.HeaderOf("Content-Type", "application/json")).
		WithBody(post)
}

func main() {
	ctx := context.Background()

	// 1. Start a Prometheus metrics endpoint
	registry := prometheus.NewRegistry()
	metrics := kirara.NewMetricsCollectorWithRegistry(registry)

	metricsServer := &http.Server{Addr: metricsAddr, Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{})}
	go func() {
		log.Printf("Serving Prometheus metrics on %s/metrics", metricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Metrics server failed: %v", err)
		}
	}()

	// 2. Build the client with debug logging, hooks and request IDs
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	client := kirara.New(
		kirara.WithBaseURL("https://jsonplaceholder.typicode.com"),
		kirara.WithDefaultHeaders(kirara.HeaderOf("Accept", "application/json")),
		kirara.WithLogger(logger),
		kirara.WithDebug(),
		kirara.WithRequestIDHeader("X-Request-Id"),
		kirara.WithMetrics(metrics),
		kirara.WithHooks(kirara.Hooks{
			OnException: func(req kirara.RequestView, err error) {
				logger.Error().Err(err).Str("endpoint", req.Endpoint()).Msg("request failed")
			},
		}),
	)
	defer client.Close()

	api := NewPlaceholderAPI(client)

	// 3. Fetch a single post
	post, err := api.GetPost("1").Send(ctx).Wait(ctx)
	if err != nil {
		log.Fatalf("GetPost failed: %v", err)
	}
	fmt.Printf("Post 1: %q\n", post.Title)

	// 4. Fan out several requests and collect the futures
	futures := make([]*kirara.Future[Post], 0, 5)
	for id := 2; id <= 6; id++ {
		futures = append(futures, api.GetPost(fmt.Sprint(id)).Send(ctx))
	}
	for _, future := range futures {
		if p, err := future.Wait(ctx); err == nil {
			fmt.Printf("Post %d: %q\n", p.ID, p.Title)
		}
	}

	// 5. Query and create
	posts, err := api.ListPosts("1").Send(ctx).Wait(ctx)
	if err != nil {
		log.Fatalf("ListPosts failed: %v", err)
	}
	fmt.Printf("User 1 has %d posts\n", len(posts))

	created, err := api.CreatePost(Post{UserID: 1, Title: "hello", Body: "from kirara"}).Send(ctx).Wait(ctx)
	if err != nil {
		log.Fatalf("CreatePost failed: %v", err)
	}
	fmt.Printf("Created post %d\n", created.ID)

	// Keep serving metrics until interrupted
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	fmt.Println("Press Ctrl+C to exit")
	<-sigChan

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}
