// Package dispatch routes a validated calculation request to the calculator
// a tool names and returns its result envelope.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/bobmcallan/calc-portal/internal/calculator"
	"github.com/bobmcallan/calc-portal/internal/common"
	"github.com/bobmcallan/calc-portal/internal/registry"
	"github.com/bobmcallan/calc-portal/internal/schema"
)

// NotFoundError is returned for a tool id the current registry does not hold.
type NotFoundError struct {
	ToolID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool not found: %s", e.ToolID)
}

// InternalError hides a server-side failure from the client. Cause is only logged.
type InternalError struct {
	ToolID string
	Cause  error
}

func (e *InternalError) Error() string {
	return "internal error"
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

// Status maps a Dispatch error onto an HTTP status code.
func Status(err error) int {
	var (
		nf *NotFoundError
		ve *schema.ValidationError
		de *calculator.DomainError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &ve), errors.As(err, &de):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Detail returns the client-facing message of a Dispatch error.
func Detail(err error) string {
	if Status(err) == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}

// Dispatcher runs calculations against the registry's current snapshot.
type Dispatcher struct {
	registry *registry.Registry
	logger   *common.Logger
}

// New creates a dispatcher over reg.
func New(reg *registry.Registry, logger *common.Logger) *Dispatcher {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Dispatcher{registry: reg, logger: logger}
}

// Dispatch validates body against the tool's request schema, resolves the
// tool's calculator and invokes it with the calling shape it implements.
//
// Errors are *NotFoundError, *schema.ValidationError, *calculator.DomainError
// or *InternalError. The calculator is never invoked for an invalid request.
func (d *Dispatcher) Dispatch(ctx context.Context, toolID string, body []byte) (*calculator.Result, error) {
	snap := d.registry.Current()
	if snap == nil {
		return nil, d.internal(ctx, toolID, errors.New("registry not loaded"))
	}
	tool, ok := snap.Get(toolID)
	if !ok {
		return nil, &NotFoundError{ToolID: toolID}
	}
	v, ok := snap.Validator(toolID)
	if !ok {
		return nil, d.internal(ctx, toolID, errors.New("no request validator compiled"))
	}

	req, err := v.Validate(body)
	if err != nil {
		return nil, err
	}

	resolved, err := snap.Resolver.Resolve(toolID, tool.CalculatorRef)
	if err != nil {
		return nil, d.internal(ctx, toolID, err)
	}

	start := time.Now()
	res, err := d.invoke(ctx, tool, resolved, req)
	if err != nil {
		var ie *InternalError
		if Status(err) == http.StatusBadRequest || errors.As(err, &ie) {
			return nil, err
		}
		return nil, d.internal(ctx, toolID, err)
	}

	if res == nil {
		return nil, d.internal(ctx, toolID, fmt.Errorf("calculator %s returned no result", tool.CalculatorRef))
	}
	if missing := res.Missing(); len(missing) > 0 {
		return nil, d.internal(ctx, toolID, fmt.Errorf("calculator %s returned an incomplete envelope, missing %s",
			tool.CalculatorRef, strings.Join(missing, ", ")))
	}
	// NaN and Inf have no JSON encoding.
	if _, err := json.Marshal(res); err != nil {
		return nil, d.internal(ctx, toolID, fmt.Errorf("calculator %s returned an unencodable result: %w", tool.CalculatorRef, err))
	}

	d.logger.ForContext(ctx).Debug().
		Str("tool", toolID).
		Str("scenario", req.Scenario).
		Dur("elapsed", time.Since(start)).
		Msg("Calculation complete")
	return res, nil
}

func (d *Dispatcher) invoke(ctx context.Context, tool *registry.ToolSpec, resolved *calculator.Resolved, req *calculator.Request) (res *calculator.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.ForContext(ctx).Error().
				Str("tool", tool.ID).
				Str("calculator", resolved.Ref).
				Str("stack", string(debug.Stack())).
				Msgf("Calculator panicked: %v", r)
			res = nil
			err = &InternalError{ToolID: tool.ID, Cause: fmt.Errorf("calculator panic: %v", r)}
		}
	}()

	switch c := resolved.Instance.(type) {
	case calculator.Scenario:
		if req.Scenario == "" {
			return nil, &schema.ValidationError{Field: schema.ScenarioField, Constraint: "missing scenario"}
		}
		if len(tool.Scenarios) > 0 {
			if _, ok := tool.Scenario(req.Scenario); !ok {
				return nil, &schema.ValidationError{
					Field:      schema.ScenarioField,
					Constraint: fmt.Sprintf("unknown scenario %q", req.Scenario),
				}
			}
		}
		return c.Calculate(ctx, req.Scenario, req.Params)
	case calculator.Simple:
		return c.Calculate(ctx, req.Params)
	default:
		return nil, fmt.Errorf("calculator %s has no supported calling shape", resolved.Ref)
	}
}

func (d *Dispatcher) internal(ctx context.Context, toolID string, cause error) error {
	d.logger.ForContext(ctx).Error().
		Err(cause).
		Str("tool", toolID).
		Msg("Calculation failed")
	return &InternalError{ToolID: toolID, Cause: cause}
}
