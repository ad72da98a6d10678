package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"ataa/internal/domain"
	"ataa/internal/engine"
	"ataa/internal/repo"
	"ataa/internal/service"
)

// Config for the HTTP API handler.
type Config struct {
	Service  *service.Service
	BasePath string
	Auth     AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"task not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

type requestKey struct{}
type bodyBytesKey struct{}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Ataa API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			// Schema/request validation errors should be 400 bad_request
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(raw))
			ctx := context.WithValue(r.Context(), requestKey{}, r)
			ctx = context.WithValue(ctx, bodyBytesKey{}, raw)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	router.Use(newAuthMiddleware(basePath, cfg.Auth, cfg.Service.Repo))
	hcfg := huma.DefaultConfig("Ataa API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerEmployees(group, cfg.Service)
	registerTasks(group, cfg.Service)
	registerBurnout(group, cfg.Service)
	registerInfluencers(group, cfg.Service)
	registerDecisions(group, cfg.Service)
	registerWorkflows(group, cfg.Service)
	registerPractices(group, cfg.Service)
	registerCases(group, cfg.Service)
	registerEvents(group, cfg.Service)
	registerAPIKeys(group, cfg.Service)
	registerMe(group)
	registerDevAuth(group, cfg.Auth)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	if errors.Is(err, engine.ErrTemplateNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	if errors.Is(err, engine.ErrNoQualifiedEmployee) {
		return newAPIError(http.StatusUnprocessableEntity, "no_qualified_employee", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	switch {
	// Workflow gate denials carry the Arabic reason verbatim.
	case strings.HasPrefix(msg, "يجب"):
		return newAPIError(http.StatusUnprocessableEntity, "step_blocked", msg, nil)
	case strings.Contains(lowered, "already"):
		return newAPIError(http.StatusConflict, "conflict", msg, nil)
	case strings.Contains(lowered, "not pending"):
		return newAPIError(http.StatusConflict, "conflict", msg, nil)
	case strings.Contains(lowered, "invalid") || strings.Contains(lowered, "missing") || strings.Contains(lowered, "required"):
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func bodyBytes(ctx context.Context) []byte {
	raw, _ := ctx.Value(bodyBytesKey{}).([]byte)
	return raw
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 200 {
		return 200
	}
	return limit
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			applyAuthSecurity(oas, basePath)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func ensureDefaultErrorResponses(oas *huma.OpenAPI) {
	if oas == nil || oas.Paths == nil {
		return
	}
	for _, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if op.Responses == nil {
				op.Responses = map[string]*huma.Response{}
			}
			op.Responses["default"] = &huma.Response{
				Description: "Error",
				Content: map[string]*huma.MediaType{
					"application/json": {
						Schema: &huma.Schema{Ref: "#/components/schemas/ApiError"},
					},
				},
			}
		}
	}
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	oas.Components.SecuritySchemes["apiKeyAuth"] = &huma.SecurityScheme{
		Type: "apiKey",
		In:   "header",
		Name: "X-Api-Key",
	}
	security := []map[string][]string{
		{"bearerAuth": {}},
		{"apiKeyAuth": {}},
	}
	oas.Security = security
	healthPath := path.Join(basePath, "health")
	devLoginPath := path.Join(basePath, "auth/dev/login")
	if !strings.HasPrefix(healthPath, "/") {
		healthPath = "/" + healthPath
	}
	if !strings.HasPrefix(devLoginPath, "/") {
		devLoginPath = "/" + devLoginPath
	}
	for route, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if route == healthPath || route == devLoginPath {
				op.Security = []map[string][]string{}
				continue
			}
			op.Security = security
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Ataa API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
    <p style="padding: 1rem; font-family: sans-serif; color: #444;">
      Authenticate with Authorization: Bearer &lt;token&gt; or X-Api-Key.
    </p>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerEmployees(api huma.API, svc *service.Service) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-employee",
		Method:        http.MethodPost,
		Path:          "/employees",
		Summary:       "Create employee",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body EmployeeUpsertRequest `json:"body"`
	}) (*struct {
		Body domain.EmployeeProfile `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		e, err := svc.CreateEmployee(ctx, input.Body.profile(), actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.EmployeeProfile `json:"body"`
		}{Body: e}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-employees",
		Method:      http.MethodGet,
		Path:        "/employees",
		Summary:     "List employees",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.EmployeeProfile `json:"body"`
	}, error) {
		items, err := svc.ListEmployees(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.EmployeeProfile `json:"body"`
		}{Body: nonNilSlice(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-employee",
		Method:      http.MethodGet,
		Path:        "/employees/{employee_id}",
		Summary:     "Get employee",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		EmployeeID string `path:"employee_id"`
	}) (*struct {
		Body domain.EmployeeProfile `json:"body"`
	}, error) {
		e, err := svc.GetEmployee(ctx, input.EmployeeID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.EmployeeProfile `json:"body"`
		}{Body: e}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-employee",
		Method:      http.MethodPut,
		Path:        "/employees/{employee_id}",
		Summary:     "Update employee",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		EmployeeID string                `path:"employee_id"`
		Body       EmployeeUpsertRequest `json:"body"`
	}) (*struct {
		Body domain.EmployeeProfile `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		profile := input.Body.profile()
		profile.ID = input.EmployeeID
		e, err := svc.UpdateEmployee(ctx, profile, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.EmployeeProfile `json:"body"`
		}{Body: e}, nil
	})
}

func registerTasks(api huma.API, svc *service.Service) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/tasks",
		Summary:       "Create task",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body TaskCreateRequest `json:"body"`
	}) (*struct {
		Body domain.TaskToDistribute `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		t, err := svc.CreateTask(ctx, input.Body.task(), actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.TaskToDistribute `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.TaskToDistribute `json:"body"`
	}, error) {
		items, err := svc.ListTasks(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.TaskToDistribute `json:"body"`
		}{Body: nonNilSlice(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{task_id}",
		Summary:     "Get task",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string `path:"task_id"`
	}) (*struct {
		Body domain.TaskToDistribute `json:"body"`
	}, error) {
		t, err := svc.GetTask(ctx, input.TaskID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.TaskToDistribute `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "score-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{task_id}/scores",
		Summary:     "Score every employee against a task",
		Description: "Returns the readiness/availability/growth leaderboard, best candidate first.",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string `path:"task_id"`
	}) (*struct {
		Body []domain.RAGScore `json:"body"`
	}, error) {
		scores, err := svc.ScoreTask(ctx, input.TaskID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.RAGScore `json:"body"`
		}{Body: nonNilSlice(scores)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "distribute-task",
		Method:      http.MethodPost,
		Path:        "/tasks/{task_id}/distribute",
		Summary:     "Assign a task to the best-scoring employee",
		Errors: []int{
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		TaskID string `path:"task_id"`
	}) (*struct {
		Body domain.DistributionResult `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		result, err := svc.DistributeTask(ctx, input.TaskID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.DistributionResult `json:"body"`
		}{Body: result}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "distribute-backlog",
		Method:      http.MethodPost,
		Path:        "/tasks/distribute",
		Summary:     "Distribute every unassigned task",
		Errors:      []int{http.StatusUnprocessableEntity},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.DistributionResult `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		results, err := svc.DistributeBacklog(ctx, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.DistributionResult `json:"body"`
		}{Body: nonNilSlice(results)}, nil
	})
}

func registerBurnout(api huma.API, svc *service.Service) {
	huma.Register(api, huma.Operation{
		OperationID:   "analyze-burnout",
		Method:        http.MethodPost,
		Path:          "/employees/{employee_id}/burnout",
		Summary:       "Analyze burnout from a week of work data",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		EmployeeID string          `path:"employee_id"`
		Body       domain.WorkData `json:"body"`
	}) (*struct {
		Body domain.BurnoutRecord `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		record, err := svc.AnalyzeBurnout(ctx, input.EmployeeID, input.Body, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.BurnoutRecord `json:"body"`
		}{Body: record}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "forecast-burnout",
		Method:      http.MethodGet,
		Path:        "/employees/{employee_id}/burnout/forecast",
		Summary:     "Forecast burnout from the snapshot trend",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		EmployeeID string `path:"employee_id"`
	}) (*struct {
		Body domain.BurnoutPrediction `json:"body"`
	}, error) {
		prediction, err := svc.ForecastBurnout(ctx, input.EmployeeID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.BurnoutPrediction `json:"body"`
		}{Body: prediction}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "burnout-history",
		Method:      http.MethodGet,
		Path:        "/employees/{employee_id}/burnout/history",
		Summary:     "Burnout snapshot history, oldest first",
	}, func(ctx context.Context, input *struct {
		EmployeeID string `path:"employee_id"`
		Limit      int    `query:"limit"`
	}) (*struct {
		Body []domain.TrendPoint `json:"body"`
	}, error) {
		points, err := svc.BurnoutHistory(ctx, input.EmployeeID, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.TrendPoint `json:"body"`
		}{Body: nonNilSlice(points)}, nil
	})
}

func registerInfluencers(api huma.API, svc *service.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "save-influencer",
		Method:      http.MethodPut,
		Path:        "/influencers",
		Summary:     "Create or update an influencer",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body InfluencerUpsertRequest `json:"body"`
	}) (*struct {
		Body domain.InfluencerData `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		inf, err := svc.SaveInfluencer(ctx, input.Body.influencer(), actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.InfluencerData `json:"body"`
		}{Body: inf}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-influencers",
		Method:      http.MethodGet,
		Path:        "/influencers",
		Summary:     "List influencers",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.InfluencerData `json:"body"`
	}, error) {
		items, err := svc.ListInfluencers(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.InfluencerData `json:"body"`
		}{Body: nonNilSlice(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "predict-campaign",
		Method:      http.MethodPost,
		Path:        "/influencers/{influencer_id}/predict",
		Summary:     "Predict campaign performance for one influencer",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		InfluencerID string                 `path:"influencer_id"`
		Body         PredictCampaignRequest `json:"body"`
	}) (*struct {
		Body domain.PredictionResult `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		result, err := svc.PredictInfluencer(ctx, input.InfluencerID, input.Body.Budget, input.Body.CampaignType, input.Body.TargetAudience)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.PredictionResult `json:"body"`
		}{Body: result}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "compare-influencers",
		Method:      http.MethodPost,
		Path:        "/influencers/compare",
		Summary:     "Compare influencers for a campaign, best first",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body CompareInfluencersRequest `json:"body"`
	}) (*struct {
		Body []domain.PredictionResult `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		results, err := svc.CompareInfluencers(ctx, input.Body.InfluencerIDs, input.Body.Budget, input.Body.CampaignType, input.Body.TargetAudience)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.PredictionResult `json:"body"`
		}{Body: nonNilSlice(results)}, nil
	})
}

func registerDecisions(api huma.API, svc *service.Service) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-decision",
		Method:        http.MethodPost,
		Path:          "/decisions",
		Summary:       "Run the decision engine on a trigger context",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body domain.DecisionContext `json:"body"`
	}) (*struct {
		Body domain.Decision `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		decision, err := svc.RunDecision(ctx, input.Body, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Decision `json:"body"`
		}{Body: decision}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-decisions",
		Method:      http.MethodGet,
		Path:        "/decisions",
		Summary:     "List decisions",
	}, func(ctx context.Context, input *struct {
		Status string `query:"status"`
	}) (*struct {
		Body []domain.Decision `json:"body"`
	}, error) {
		items, err := svc.ListDecisions(ctx, input.Status)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Decision `json:"body"`
		}{Body: nonNilSlice(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-decision",
		Method:      http.MethodGet,
		Path:        "/decisions/{decision_id}",
		Summary:     "Get decision",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		DecisionID string `path:"decision_id"`
	}) (*struct {
		Body domain.Decision `json:"body"`
	}, error) {
		decision, err := svc.GetDecision(ctx, input.DecisionID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Decision `json:"body"`
		}{Body: decision}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "accept-decision",
		Method:      http.MethodPost,
		Path:        "/decisions/{decision_id}/accept",
		Summary:     "Accept a pending decision",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		DecisionID string `path:"decision_id"`
	}) (*struct {
		Body domain.Decision `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		decision, err := svc.AcceptDecision(ctx, input.DecisionID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Decision `json:"body"`
		}{Body: decision}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reject-decision",
		Method:      http.MethodPost,
		Path:        "/decisions/{decision_id}/reject",
		Summary:     "Reject a pending decision",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		DecisionID string                `path:"decision_id"`
		Body       RejectDecisionRequest `json:"body"`
	}) (*struct {
		Body domain.Decision `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		decision, err := svc.RejectDecision(ctx, input.DecisionID, actorID, input.Body.Reason)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Decision `json:"body"`
		}{Body: decision}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "record-decision-outcome",
		Method:      http.MethodPost,
		Path:        "/decisions/{decision_id}/outcome",
		Summary:     "Record what actually happened after a decision",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		DecisionID string                 `path:"decision_id"`
		Body       DecisionOutcomeRequest `json:"body"`
	}) (*struct {
		Body domain.Decision `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		decision, err := svc.RecordDecisionOutcome(ctx, input.DecisionID, input.Body.Outcome, input.Body.Notes, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Decision `json:"body"`
		}{Body: decision}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "expire-decisions",
		Method:      http.MethodPost,
		Path:        "/decisions/expire",
		Summary:     "Expire pending decisions past their deadline",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body struct {
			Expired int64 `json:"expired"`
		} `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		n, err := svc.ExpireDecisions(ctx, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		out := &struct {
			Body struct {
				Expired int64 `json:"expired"`
			} `json:"body"`
		}{}
		out.Body.Expired = n
		return out, nil
	})
}

func registerWorkflows(api huma.API, svc *service.Service) {
	huma.Register(api, huma.Operation{
		OperationID:   "instantiate-workflow",
		Method:        http.MethodPost,
		Path:          "/projects/{project_id}/workflow",
		Summary:       "Instantiate workflow steps from a template",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		ProjectID string                     `path:"project_id"`
		Body      InstantiateWorkflowRequest `json:"body"`
	}) (*struct {
		Body []domain.ProjectStep `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if input.Body.TemplateID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "template_id is required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		steps, err := svc.InstantiateWorkflow(ctx, input.ProjectID, input.Body.TemplateID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.ProjectStep `json:"body"`
		}{Body: nonNilSlice(steps)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-workflow-steps",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/workflow",
		Summary:     "List a project's workflow steps in order",
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body []domain.ProjectStep `json:"body"`
	}, error) {
		steps, err := svc.Repo.ListProjectSteps(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.ProjectStep `json:"body"`
		}{Body: nonNilSlice(steps)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "workflow-progress",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/workflow/progress",
		Summary:     "Workflow progress summary",
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body domain.WorkflowProgress `json:"body"`
	}, error) {
		progress, err := svc.WorkflowProgress(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.WorkflowProgress `json:"body"`
		}{Body: progress}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "start-step",
		Method:      http.MethodPost,
		Path:        "/steps/{step_id}/start",
		Summary:     "Start a workflow step",
		Errors:      []int{http.StatusNotFound, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		StepID string `path:"step_id"`
	}) (*struct {
		Body domain.ProjectStep `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		step, err := svc.StartStep(ctx, input.StepID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ProjectStep `json:"body"`
		}{Body: step}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "complete-step",
		Method:      http.MethodPost,
		Path:        "/steps/{step_id}/complete",
		Summary:     "Complete a workflow step",
		Errors:      []int{http.StatusNotFound, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		StepID string `path:"step_id"`
	}) (*struct {
		Body domain.ProjectStep `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		step, err := svc.CompleteStep(ctx, input.StepID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ProjectStep `json:"body"`
		}{Body: step}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "attach-step-file",
		Method:        http.MethodPost,
		Path:          "/steps/{step_id}/files",
		Summary:       "Attach a file record to a step",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		StepID string                `path:"step_id"`
		Body   AttachStepFileRequest `json:"body"`
	}) (*struct {
		Body domain.ProjectStep `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if input.Body.FileName == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "file_name is required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		step, err := svc.AttachStepFile(ctx, input.StepID, input.Body.FileName, input.Body.FileType, input.Body.FileSize, input.Body.URL, actorID, input.Body.Required)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ProjectStep `json:"body"`
		}{Body: step}, nil
	})
}

func registerPractices(api huma.API, svc *service.Service) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-practice",
		Method:        http.MethodPost,
		Path:          "/practices",
		Summary:       "Create a best practice",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CreatePracticeRequest `json:"body"`
	}) (*struct {
		Body domain.BestPractice `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		practice, err := svc.CreatePractice(ctx, input.Body.Title, input.Body.Description, input.Body.Category, input.Body.Author, input.Body.Steps, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.BestPractice `json:"body"`
		}{Body: practice}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "search-practices",
		Method:      http.MethodGet,
		Path:        "/practices",
		Summary:     "Search the practice library",
	}, func(ctx context.Context, input *struct {
		Query     string   `query:"q"`
		Category  string   `query:"category"`
		MinRating *float64 `query:"min_rating"`
		Approved  *bool    `query:"approved"`
		Featured  *bool    `query:"featured"`
	}) (*struct {
		Body []domain.BestPractice `json:"body"`
	}, error) {
		items, err := svc.SearchPractices(ctx, input.Query, engine.SearchFilters{
			Category:  input.Category,
			MinRating: input.MinRating,
			Approved:  input.Approved,
			Featured:  input.Featured,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.BestPractice `json:"body"`
		}{Body: nonNilSlice(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "review-practice",
		Method:        http.MethodPost,
		Path:          "/practices/{practice_id}/reviews",
		Summary:       "Add a review to a practice",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		PracticeID string                `path:"practice_id"`
		Body       PracticeReviewRequest `json:"body"`
	}) (*struct {
		Body domain.BestPractice `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if input.Body.UserID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "user_id is required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		practice, err := svc.AddPracticeReview(ctx, input.PracticeID, input.Body.UserID, input.Body.UserName, input.Body.Rating, input.Body.Comment, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.BestPractice `json:"body"`
		}{Body: practice}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "use-practice",
		Method:      http.MethodPost,
		Path:        "/practices/{practice_id}/use",
		Summary:     "Record one use of a practice",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		PracticeID string `path:"practice_id"`
	}) (*struct{}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := svc.UsePractice(ctx, input.PracticeID, actorID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerCases(api huma.API, svc *service.Service) {
	huma.Register(api, huma.Operation{
		OperationID:   "record-success-case",
		Method:        http.MethodPost,
		Path:          "/cases/successes",
		Summary:       "Record a success case",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body SuccessCaseRequest `json:"body"`
	}) (*struct {
		Body domain.SuccessCase `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		c, err := svc.RecordSuccessCase(ctx, input.Body.successCase(), actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.SuccessCase `json:"body"`
		}{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "record-fail-case",
		Method:        http.MethodPost,
		Path:          "/cases/failures",
		Summary:       "Record a failure case",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body FailCaseRequest `json:"body"`
	}) (*struct {
		Body domain.FailCase `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		c, err := svc.RecordFailCase(ctx, input.Body.failCase(), actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.FailCase `json:"body"`
		}{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "analyze-successes",
		Method:      http.MethodGet,
		Path:        "/cases/successes/analysis",
		Summary:     "Analyze recurring patterns across success cases",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body domain.CaseAnalysis `json:"body"`
	}, error) {
		analysis, err := svc.AnalyzeSuccesses(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.CaseAnalysis `json:"body"`
		}{Body: analysis}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "analyze-failures",
		Method:      http.MethodGet,
		Path:        "/cases/failures/analysis",
		Summary:     "Analyze recurring causes across failure cases",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body domain.CaseAnalysis `json:"body"`
	}, error) {
		analysis, err := svc.AnalyzeFailures(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.CaseAnalysis `json:"body"`
		}{Body: analysis}, nil
	})
}

func registerEvents(api huma.API, svc *service.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "Audit log, newest first",
	}, func(ctx context.Context, input *struct {
		EntityKind string `query:"entity_kind"`
		EntityID   string `query:"entity_id"`
		Limit      int    `query:"limit"`
	}) (*struct {
		Body []EventResponse `json:"body"`
	}, error) {
		items, err := svc.Log(ctx, input.EntityKind, input.EntityID, normalizeLimit(input.Limit))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []EventResponse `json:"body"`
		}{Body: mapEvents(items)}, nil
	})
}

func registerAPIKeys(api huma.API, svc *service.Service) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-api-key",
		Method:        http.MethodPost,
		Path:          "/api-keys",
		Summary:       "Register an API key",
		Description:   "The key itself is hashed before storage and never returned.",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CreateAPIKeyRequest `json:"body"`
	}) (*struct {
		Body APIKeyResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if input.Body.Key == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "key is required", nil)
		}
		if _, authErr := actorIDFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		key := domain.APIKey{
			ID:      input.Body.ID,
			ActorID: input.Body.ActorID,
			Name:    input.Body.Name,
			KeyHash: repo.HashAPIKey(input.Body.Key),
		}
		if key.ID == "" {
			key.ID = repo.HashAPIKey(input.Body.Key)[:12]
		}
		if err := svc.Repo.InsertAPIKey(ctx, key); err != nil {
			return nil, handleError(err)
		}
		stored, err := svc.Repo.GetAPIKeyByHash(ctx, key.KeyHash)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body APIKeyResponse `json:"body"`
		}{Body: apiKeyResponse(stored)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-api-keys",
		Method:      http.MethodGet,
		Path:        "/api-keys",
		Summary:     "List API keys",
	}, func(ctx context.Context, input *struct {
		ActorID string `query:"actor_id"`
	}) (*struct {
		Body []APIKeyResponse `json:"body"`
	}, error) {
		keys, err := svc.Repo.ListAPIKeys(ctx, input.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]APIKeyResponse, 0, len(keys))
		for _, k := range keys {
			out = append(out, apiKeyResponse(k))
		}
		return &struct {
			Body []APIKeyResponse `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-api-key",
		Method:      http.MethodDelete,
		Path:        "/api-keys/{key_id}",
		Summary:     "Delete an API key",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		KeyID string `path:"key_id"`
	}) (*struct{}, error) {
		if _, authErr := actorIDFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		if err := svc.Repo.DeleteAPIKey(ctx, input.KeyID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerMe(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/me",
		Summary:     "Current principal",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body MeResponse `json:"body"`
	}, error) {
		principal, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		return &struct {
			Body MeResponse `json:"body"`
		}{Body: MeResponse{
			ActorID: principal.ActorID,
			Roles:   nonNilSlice(principal.Roles),
			Source:  principal.Source,
		}}, nil
	})
}

func registerDevAuth(api huma.API, authCfg AuthConfig) {
	huma.Register(api, huma.Operation{
		OperationID: "dev-login",
		Method:      http.MethodPost,
		Path:        "/auth/dev/login",
		Summary:     "Mint a short-lived development token",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body DevLoginRequest `json:"body"`
	}) (*struct {
		Body DevLoginResponse `json:"body"`
	}, error) {
		if input.Body.ActorID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "actor_id is required", nil)
		}
		token, err := signDevToken(authCfg.JWTSecret, input.Body.ActorID, input.Body.Roles)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DevLoginResponse `json:"body"`
		}{Body: DevLoginResponse{Token: token, ActorID: input.Body.ActorID}}, nil
	})
}
