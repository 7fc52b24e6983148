package entropy

import (
	"fmt"
	"runtime"
	"sync"
)

// maxWorkers bounds the pool to keep codec memory in check
const maxWorkers = 32

// Job is one subsequence payload to transform
type Job struct {
	Name string
	Data []byte
}

// Result carries the output of a Job, in submission order
type Result struct {
	Name string
	Data []byte
}

type poolJob struct {
	Job
	index int
}

type poolResult struct {
	Result
	index int
	err   error
}

// Pool runs a codec over many payloads in parallel. Each worker owns
// its own codec instance.
type Pool struct {
	workers  int
	newCodec func() (Codec, error)
}

// NewPool creates a pool. workers <= 0 means one per CPU.
func NewPool(newCodec func() (Codec, error), workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}
	return &Pool{workers: workers, newCodec: newCodec}
}

// Workers returns the effective worker count
func (p *Pool) Workers() int {
	return p.workers
}

// Compress compresses every job
func (p *Pool) Compress(jobs []Job) ([]Result, error) {
	return p.run(jobs, Codec.Compress)
}

// Decompress decompresses every job
func (p *Pool) Decompress(jobs []Job) ([]Result, error) {
	return p.run(jobs, Codec.Decompress)
}

func (p *Pool) run(jobs []Job, op func(Codec, []byte) ([]byte, error)) ([]Result, error) {
	queue := make(chan poolJob, p.workers*2)
	results := make(chan poolResult, p.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			codec, err := p.newCodec()
			if err != nil {
				err = fmt.Errorf("worker %d: %w", id, err)
			} else if c, ok := codec.(interface{ Close() error }); ok {
				defer c.Close()
			}
			for job := range queue {
				r := poolResult{Result: Result{Name: job.Name}, index: job.index, err: err}
				if err == nil {
					r.Data, r.err = op(codec, job.Data)
					if r.err != nil {
						r.err = fmt.Errorf("worker %d: %s: %w", id, job.Name, r.err)
					}
				}
				results <- r
			}
		}(i)
	}

	go func() {
		for i, j := range jobs {
			queue <- poolJob{Job: j, index: i}
		}
		close(queue)
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]Result, len(jobs))
	var firstErr error
	for r := range results {
		if r.err != nil && firstErr == nil {
			firstErr = r.err
		}
		out[r.index] = r.Result
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
