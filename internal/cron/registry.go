package cron

import "context"

// Job is one unit of scheduled maintenance work; the cart sweeper is the
// only job today.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds the jobs a worker cycle runs, in registration order.
type Registry struct {
	jobs []Job
}

func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{}
	for _, job := range jobs {
		r.Register(job)
	}
	return r
}

// Register appends a job; nil jobs are ignored.
func (r *Registry) Register(job Job) {
	if job != nil {
		r.jobs = append(r.jobs, job)
	}
}

// Jobs returns a copy so callers cannot reorder the schedule.
func (r *Registry) Jobs() []Job {
	out := make([]Job, len(r.jobs))
	copy(out, r.jobs)
	return out
}
