package utils

import (
	"runtime"
	"sync"
	"sync/atomic"
)

type PartitionMap struct {
	MaxIndex       int // MaxIndex is partitioned into ParallelDegree partitions
	ParallelDegree int
	Partitions     [][2]int // Beginning and end index of partitions
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	if ParallelDegree < 1 {
		ParallelDegree = 1
	}
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	for n := 0; n < ParallelDegree; n++ {
		pm.Partitions[n] = pm.Split1D(n)
	}
	return
}

func (pm *PartitionMap) GetBucketRange(bucketNum int) (kMin, kMax int) {
	kMin, kMax = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}

func (pm *PartitionMap) Split1D(threadNum int) (bucket [2]int) {
	// This routine splits one dimension into c.ParallelDegree pieces, with a maximum imbalance of one item
	var (
		Npart            = pm.MaxIndex / (pm.ParallelDegree)
		startAdd, endAdd int
		remainder        int
	)
	remainder = pm.MaxIndex % pm.ParallelDegree
	if remainder != 0 { // spread the remainder over the first chunks evenly
		if threadNum+1 > remainder {
			startAdd = remainder
			endAdd = 0
		} else {
			startAdd = threadNum
			endAdd = 1
		}
	}
	bucket[0] = threadNum*Npart + startAdd
	bucket[1] = bucket[0] + Npart + endAdd
	return
}

var parallelDegree atomic.Int64

// SetParallelDegree fixes the number of buckets used by ParallelFor, zero restores runtime.NumCPU()
func SetParallelDegree(np int) {
	if np < 0 {
		np = 0
	}
	parallelDegree.Store(int64(np))
}

func ParallelDegree() int {
	if np := int(parallelDegree.Load()); np > 0 {
		return np
	}
	return runtime.NumCPU()
}

/*
ParallelFor splits [0,maxIndex) into buckets and runs fn(kMin, kMax) on each bucket in its own goroutine,
returning after all buckets are done. Each call is a complete phase: nothing written inside fn is visible to
a later phase until ParallelFor returns.
*/
func ParallelFor(maxIndex int, fn func(kMin, kMax int)) {
	if maxIndex <= 0 {
		return
	}
	var (
		NP = ParallelDegree()
		wg = sync.WaitGroup{}
	)
	if NP > maxIndex {
		NP = maxIndex
	}
	if NP == 1 {
		fn(0, maxIndex)
		return
	}
	pm := NewPartitionMap(NP, maxIndex)
	for np := 0; np < NP; np++ {
		wg.Add(1)
		go func(np int) {
			kMin, kMax := pm.GetBucketRange(np)
			fn(kMin, kMax)
			wg.Done()
		}(np)
	}
	wg.Wait()
}

// ParallelForErr is ParallelFor for bucket functions that can fail, the first error by bucket order is returned
func ParallelForErr(maxIndex int, fn func(kMin, kMax int) error) (err error) {
	if maxIndex <= 0 {
		return
	}
	var (
		NP = ParallelDegree()
	)
	if NP > maxIndex {
		NP = maxIndex
	}
	pm := NewPartitionMap(NP, maxIndex)
	errs := make([]error, NP)
	wg := sync.WaitGroup{}
	for np := 0; np < NP; np++ {
		wg.Add(1)
		go func(np int) {
			kMin, kMax := pm.GetBucketRange(np)
			errs[np] = fn(kMin, kMax)
			wg.Done()
		}(np)
	}
	wg.Wait()
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return
}
