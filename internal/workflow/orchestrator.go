// Package workflow drives assessments through the fixed stage order and owns
// the state machine around them: input validation, progress events, the final
// summary and the error status when a stage fails.
package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/getmedsage/medsage/internal/agents"
	"github.com/getmedsage/medsage/internal/knowledge"
	"github.com/getmedsage/medsage/internal/llm"
	"github.com/getmedsage/medsage/internal/metrics"
	"github.com/getmedsage/medsage/pkg/models"
)

// Orchestrator coordinates the five stage agents over a shared state.
type Orchestrator struct {
	data       *agents.DataAgent
	diagnosis  *agents.DiagnosisAgent
	reasoning  *agents.ReasoningAgent
	treatment  *agents.TreatmentAgent
	evaluation *agents.EvaluationAgent
	kb         *knowledge.Base
	log        *slog.Logger
}

// New wires the stage agents to a shared model client and knowledge base.
func New(completer llm.Completer, kb *knowledge.Base, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		data:       agents.NewDataAgent(kb, log),
		diagnosis:  agents.NewDiagnosisAgent(completer, log),
		reasoning:  agents.NewReasoningAgent(completer, log),
		treatment:  agents.NewTreatmentAgent(completer, kb, log),
		evaluation: agents.NewEvaluationAgent(completer, log),
		kb:         kb,
		log:        log,
	}
}

// Initialize validates the patient input and returns a fresh workflow state
// with every stage result unset. Invalid input yields a *ValidationError
// listing all offending fields.
func (o *Orchestrator) Initialize(patient models.Patient) (*models.WorkflowState, error) {
	if err := ValidatePatient(patient); err != nil {
		return nil, err
	}

	o.log.Info("initializing assessment", "patient", patient.Name)
	return &models.WorkflowState{
		Patient:   patient,
		Status:    models.StatusInitialized,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// StageNames lists the pipeline stages in execution order.
func StageNames() []string {
	return []string{"data_retrieval", "diagnosis", "validation", "treatment", "evaluation", "summary"}
}

// Run executes the pipeline stages in order, mutating the state in place and
// emitting progress to the optional emitter. A stage failure stops the run,
// records the failing stage on the state and keeps every earlier result. Run
// never returns an error; callers inspect Status.
func (o *Orchestrator) Run(ctx context.Context, state *models.WorkflowState, emitter Emitter) *models.WorkflowState {
	o.log.Info("starting assessment", "patient", state.Patient.Name)
	state.Status = models.StatusInProgress

	stages := []struct {
		name    string
		message string
		run     func(context.Context) error
	}{
		{"data_retrieval", "Retrieving medical data", func(ctx context.Context) error {
			data, err := o.data.FetchMedicalData(ctx, state.Patient.SymptomNames())
			if err != nil {
				return err
			}
			state.MedicalData = data
			return nil
		}},
		{"diagnosis", "Generating diagnoses", func(ctx context.Context) error {
			diagnoses, err := o.diagnosis.GenerateDiagnoses(ctx, state.Patient, state.MedicalData)
			if err != nil {
				return err
			}
			state.Diagnoses = diagnoses
			return nil
		}},
		{"validation", "Validating diagnoses", func(ctx context.Context) error {
			validation, err := o.reasoning.ValidateDiagnoses(ctx, state.Diagnoses, state.Patient.Symptoms)
			if err != nil {
				return err
			}
			state.Validation = validation
			return nil
		}},
		{"treatment", "Recommending treatments", func(ctx context.Context) error {
			treatments, err := o.treatment.RecommendTreatments(ctx, state.Diagnoses, state.Patient)
			if err != nil {
				return err
			}
			state.Treatments = treatments
			return nil
		}},
		{"evaluation", "Evaluating assessment quality", func(ctx context.Context) error {
			evaluation, err := o.evaluation.EvaluateAssessment(ctx, state)
			if err != nil {
				return err
			}
			state.Evaluation = evaluation
			return nil
		}},
		{"summary", "Creating final summary", func(context.Context) error {
			state.FinalSummary = Summarize(state, o.kb)
			return nil
		}},
	}

	for i, stage := range stages {
		emit(emitter, Event{Type: "stage", Stage: stage.name, Step: i + 1, Total: len(stages), Message: stage.message})
		o.log.Info("running stage", "stage", stage.name, "step", i+1, "total", len(stages))

		start := time.Now()
		err := stage.run(ctx)
		metrics.StageDuration.WithLabelValues(stage.name).Observe(time.Since(start).Seconds())

		if err != nil {
			stageErr := &StageError{Stage: stage.name, Err: err}
			o.log.Error("stage failed", "stage", stage.name, "error", err)
			metrics.StageFailures.WithLabelValues(stage.name).Inc()
			metrics.AssessmentsTotal.WithLabelValues(string(models.StatusError)).Inc()

			state.Status = models.StatusError
			state.Error = stageErr.Error()
			emit(emitter, Event{Type: "error", Stage: stage.name, Message: stageErr.Error()})
			return state
		}
	}

	state.Status = models.StatusCompleted
	metrics.AssessmentsTotal.WithLabelValues(string(models.StatusCompleted)).Inc()
	o.log.Info("assessment completed", "patient", state.Patient.Name, "quality_score", state.QualityScore())
	emit(emitter, Event{Type: "done", State: state})
	return state
}
