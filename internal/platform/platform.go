package platform

import (
	"errors"
	"fmt"
)

// KHz is a CPU frequency in kilohertz, the unit used throughout sysfs cpufreq.
type KHz uint64

var (
	// ErrNoCapacityClasses is returned when the platform exposes no CPU
	// capacity information, so no CPU can be chosen for the workload.
	ErrNoCapacityClasses = errors.New("no capacity classes available")

	// ErrNoFrequencies is returned when a CPU has no known operating points.
	ErrNoFrequencies = errors.New("no frequency list available")
)

// Info holds the platform capability data the validation needs: which CPUs
// exist grouped by capacity, their discrete operating points, and the kernel
// version string for the boost-hold advisory.
type Info struct {
	// CapacityClasses groups CPU IDs by capacity, smallest class first.
	CapacityClasses [][]uint
	// Freqs maps a CPU ID to its available frequencies, sorted ascending.
	Freqs map[uint][]KHz
	// KernelVersion is the running kernel's release string, e.g. "4.19.110".
	KernelVersion string
}

// BiggestCPU returns the first CPU of the largest capacity class. The
// workload is pinned there so frequency selection is observed on the CPU
// with the most headroom.
func (i *Info) BiggestCPU() (uint, error) {
	if len(i.CapacityClasses) == 0 || len(i.CapacityClasses[len(i.CapacityClasses)-1]) == 0 {
		return 0, ErrNoCapacityClasses
	}
	return i.CapacityClasses[len(i.CapacityClasses)-1][0], nil
}

// AvailableFreqs returns the discrete operating points of the given CPU,
// sorted ascending.
func (i *Info) AvailableFreqs(cpu uint) ([]KHz, error) {
	freqs, found := i.Freqs[cpu]
	if !found || len(freqs) == 0 {
		return nil, fmt.Errorf("cpu %d: %w", cpu, ErrNoFrequencies)
	}
	return freqs, nil
}

// MaxFreq returns the highest operating point of the given CPU.
func (i *Info) MaxFreq(cpu uint) (KHz, error) {
	freqs, err := i.AvailableFreqs(cpu)
	if err != nil {
		return 0, err
	}
	return freqs[len(freqs)-1], nil
}
