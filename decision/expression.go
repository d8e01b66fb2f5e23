package decision

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"hexbot/game"
	"hexbot/utility"
)

// Env is what an expression evaluator can read. Params exposes the document's
// numeric parameters, e.g. `Dealt * P.aggression - Received`.
type Env struct {
	Dealt         float64
	Firing        float64
	Physical      float64
	Received      float64
	Success       float64
	InRange       int
	HexesMoved    int
	Cost          int
	Running       bool
	Health        float64
	HomeDistance  int
	EnemyDistance int
	ClusterSize   int
	Stayed        bool
	P             map[string]float64
}

type expression struct {
	src     string
	program *vm.Program
	params  map[string]float64
}

func newExpression(doc EvaluatorDoc) (Evaluator, error) {
	if doc.Expression == "" {
		return nil, fmt.Errorf("%w: expression evaluator without expression", ErrConfiguration)
	}
	prog, err := expr.Compile(doc.Expression, expr.Env(Env{}), expr.AsFloat64())
	if err != nil {
		return nil, fmt.Errorf("%w: compile %q: %v", ErrConfiguration, doc.Expression, err)
	}
	params := make(map[string]float64, len(doc.Params))
	for k, v := range doc.Params {
		params[k] = v
	}
	return &expression{src: doc.Expression, program: prog, params: params}, nil
}

func (e *expression) Evaluate(ctx *Context, c *Candidate) Score {
	env := e.env(ctx, c)
	out, err := vm.Run(e.program, env)
	if err != nil {
		return Score{Reason: fmt.Sprintf("expression error: %v", err)}
	}
	v, ok := out.(float64)
	if !ok {
		return Score{Reason: fmt.Sprintf("expression returned %T", out)}
	}
	return Score{Value: v, Reason: e.src}
}

func (e *expression) env(ctx *Context, c *Candidate) Env {
	d := c.Damage(ctx)
	final := c.Path.Final()
	env := Env{
		Dealt:         d.Dealt(),
		Firing:        d.Firing,
		Physical:      d.Physical,
		Received:      d.Received,
		Success:       c.Success(ctx),
		InRange:       d.InRange,
		HexesMoved:    c.Path.HexesMoved(),
		Cost:          c.Path.Cost(),
		Running:       c.Path.Mode == game.Run,
		Health:        c.Unit.Health(),
		HomeDistance:  utility.DistanceToHomeEdge(ctx.World.Board(), final, c.Unit.HomeEdge),
		EnemyDistance: -1,
		P:             e.params,
	}
	if nearest, ok := nearestEnemy(ctx, final); ok {
		env.EnemyDistance = game.Distance(final, nearest.Position)
	}
	if cl, ok := ctx.Clusters.Friendly.Of(c.Unit.ID); ok {
		env.ClusterSize = cl.Size()
	}
	if prev, ok := ctx.PreviousPath(c.Unit.ID); ok {
		env.Stayed = prev.Path.Final() == final
	}
	return env
}
