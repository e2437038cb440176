// Package api exposes the dispatcher over a small JSON HTTP surface. It is
// a thin layer: every handler delegates to the dispatcher or the pipeline
// builder and returns their status/report mapping unchanged.
package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/sluicelabs/sluice/internal/catalog"
	"github.com/sluicelabs/sluice/internal/dispatch"
	"github.com/sluicelabs/sluice/internal/job"
	"github.com/sluicelabs/sluice/internal/pipeline"
	"github.com/sluicelabs/sluice/internal/stage"
)

// Services bundles what the handlers need.
type Services struct {
	Dispatcher *dispatch.Dispatcher
	Builder    *pipeline.Builder
	Stager     *stage.Stager
}

// Register mounts every route on api.
func Register(api huma.API, svcs *Services) {
	registerHealth(api)
	registerResolveTemplate(api, svcs)
	registerStageTemplate(api, svcs)
	registerTemplateJob(api, svcs)
	registerPipelineJob(api, svcs)
}

type healthOutput struct {
	Body struct {
		Status string `json:"status" example:"ok" doc:"Health status"`
	}
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"General"},
	}, func(ctx context.Context, input *struct{}) (*healthOutput, error) {
		resp := &healthOutput{}
		resp.Body.Status = "ok"
		return resp, nil
	})
}

type resolveTemplateInput struct {
	Body struct {
		Task string `json:"task" minLength:"1" doc:"Free-form task description"`
	}
}

type resolveTemplateOutput struct {
	Body struct {
		Status   string          `json:"status"`
		Template *catalog.Record `json:"template,omitempty"`
		Report   string          `json:"report,omitempty"`
	}
}

func registerResolveTemplate(api huma.API, svcs *Services) {
	huma.Register(api, huma.Operation{
		OperationID: "resolve-template",
		Method:      http.MethodPost,
		Path:        "/v1/templates/resolve",
		Summary:     "Resolve a task description to a catalog template",
		Tags:        []string{"Templates"},
	}, func(ctx context.Context, input *resolveTemplateInput) (*resolveTemplateOutput, error) {
		resp := &resolveTemplateOutput{}
		rec, err := svcs.Dispatcher.ResolveTemplate(ctx, input.Body.Task)
		if err != nil {
			res := job.FromError(err)
			resp.Body.Status = string(res.Status)
			resp.Body.Report = res.Report
			return resp, nil
		}
		resp.Body.Status = string(job.StatusSuccess)
		resp.Body.Template = rec
		return resp, nil
	})
}

type stageTemplateInput struct {
	Body struct {
		TemplateName string `json:"template_name" minLength:"1" doc:"Template to build"`
		ModulePath   string `json:"module_path" minLength:"1" doc:"Module directory inside the template source tree"`
	}
}

func registerStageTemplate(api huma.API, svcs *Services) {
	huma.Register(api, huma.Operation{
		OperationID: "stage-template",
		Method:      http.MethodPost,
		Path:        "/v1/templates/stage",
		Summary:     "Build a custom template from source and stage it",
		Tags:        []string{"Templates"},
	}, func(ctx context.Context, input *stageTemplateInput) (*jobResultOutput, error) {
		result := svcs.Stager.BuildAndStage(ctx, stage.Request{
			TemplateName: input.Body.TemplateName,
			ModulePath:   input.Body.ModulePath,
		})
		return &jobResultOutput{Body: result}, nil
	})
}

type templateJobInput struct {
	Body struct {
		JobName      string            `json:"job_name" minLength:"1" doc:"Desired job name (sanitized before use)"`
		Task         string            `json:"task,omitempty" doc:"Task description used to resolve a template"`
		Parameters   map[string]string `json:"parameters,omitempty" doc:"Template parameters"`
		OverridePath string            `json:"override_path,omitempty" doc:"Explicit artifact path bypassing catalog resolution and validation"`
	}
}

type jobResultOutput struct {
	Body job.Result
}

func registerTemplateJob(api huma.API, svcs *Services) {
	huma.Register(api, huma.Operation{
		OperationID: "submit-template-job",
		Method:      http.MethodPost,
		Path:        "/v1/jobs/template",
		Summary:     "Submit a templated Dataflow job",
		Tags:        []string{"Jobs"},
	}, func(ctx context.Context, input *templateJobInput) (*jobResultOutput, error) {
		result := svcs.Dispatcher.RunTemplatedJob(ctx, dispatch.TemplatedJobRequest{
			JobName:      input.Body.JobName,
			Task:         input.Body.Task,
			Parameters:   input.Body.Parameters,
			OverridePath: input.Body.OverridePath,
		})
		return &jobResultOutput{Body: result}, nil
	})
}

type pipelineJobInput struct {
	Body struct {
		JobName string            `json:"job_name" minLength:"1" doc:"Desired job name (sanitized before use)"`
		Source  string            `json:"source" minLength:"1" doc:"Pipeline program source"`
		Args    map[string]string `json:"args,omitempty" doc:"Runtime arguments"`
		Mode    string            `json:"mode" enum:"batch,streaming" doc:"Pipeline mode"`
	}
}

func registerPipelineJob(api huma.API, svcs *Services) {
	huma.Register(api, huma.Operation{
		OperationID: "run-pipeline-job",
		Method:      http.MethodPost,
		Path:        "/v1/jobs/pipeline",
		Summary:     "Build and run an ad-hoc pipeline",
		Tags:        []string{"Jobs"},
	}, func(ctx context.Context, input *pipelineJobInput) (*jobResultOutput, error) {
		result := svcs.Builder.BuildAndRun(ctx, pipeline.Request{
			JobName: input.Body.JobName,
			Source:  input.Body.Source,
			Args:    input.Body.Args,
			Mode:    pipeline.Mode(input.Body.Mode),
		})
		return &jobResultOutput{Body: result}, nil
	})
}
