package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	cpuBasePath     = "/sys/devices/system/cpu/cpu%d"
	cpuFreqBasePath = "/sys/devices/system/cpu/cpu%d/cpufreq"
)

func getCPUPath(cpu uint, resource string) string {
	return filepath.Join(fmt.Sprintf(cpuBasePath, cpu), resource)
}

func getCPUFreqPath(cpu uint, resource string) string {
	return filepath.Join(fmt.Sprintf(cpuFreqBasePath, cpu), resource)
}

var (
	getCPUPathFunction     = getCPUPath
	getCPUFreqPathFunction = getCPUFreqPath
	listCPUsFunction       = listCPUs
)

// listCPUs enumerates present CPU IDs from the sysfs cpu directory.
func listCPUs() ([]uint, error) {
	entries, err := filepath.Glob("/sys/devices/system/cpu/cpu[0-9]*")
	if err != nil {
		return nil, fmt.Errorf("failed to list cpu directories: %w", err)
	}

	cpus := make([]uint, 0, len(entries))
	for _, entry := range entries {
		id, err := strconv.ParseUint(strings.TrimPrefix(filepath.Base(entry), "cpu"), 10, 32)
		if err != nil {
			continue
		}
		cpus = append(cpus, uint(id))
	}
	sort.Slice(cpus, func(i, j int) bool { return cpus[i] < cpus[j] })

	return cpus, nil
}

// readCPUCapacity returns the relative capacity of the specified CPU.
func readCPUCapacity(cpu uint) (uint, error) {
	capacityPath := getCPUPathFunction(cpu, "cpu_capacity")

	capacityData, err := os.ReadFile(capacityPath)
	if err != nil {
		return 0, fmt.Errorf("failed to read capacity for cpu %d: %w", cpu, err)
	}

	capacity, err := strconv.ParseUint(strings.TrimSpace(string(capacityData)), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("failed to convert capacity for cpu %d to uint: %w", cpu, err)
	}

	return uint(capacity), nil
}

// readAvailableFrequencies returns the CPU's operating points in kHz, sorted
// ascending.
func readAvailableFrequencies(cpu uint) ([]KHz, error) {
	freqListPath := getCPUFreqPathFunction(cpu, "scaling_available_frequencies")

	freqData, err := os.ReadFile(freqListPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read available frequencies for cpu %d: %w", cpu, err)
	}

	fields := strings.Fields(string(freqData))
	freqs := make([]KHz, 0, len(fields))
	for _, field := range fields {
		freq, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to convert frequency %q for cpu %d to uint: %w", field, cpu, err)
		}
		freqs = append(freqs, KHz(freq))
	}
	sort.Slice(freqs, func(i, j int) bool { return freqs[i] < freqs[j] })

	return freqs, nil
}

// Discover reads the local platform capability data from sysfs. CPUs are
// grouped into capacity classes by their cpu_capacity value; on symmetric
// systems without cpu_capacity all CPUs land in a single class.
func Discover() (*Info, error) {
	cpus, err := listCPUsFunction()
	if err != nil {
		return nil, err
	}
	if len(cpus) == 0 {
		return nil, ErrNoCapacityClasses
	}

	byCapacity := map[uint][]uint{}
	freqs := map[uint][]KHz{}
	for _, cpu := range cpus {
		capacity, err := readCPUCapacity(cpu)
		if err != nil {
			// symmetric platforms do not expose cpu_capacity
			capacity = 0
		}
		byCapacity[capacity] = append(byCapacity[capacity], cpu)

		cpuFreqs, err := readAvailableFrequencies(cpu)
		if err != nil {
			return nil, err
		}
		freqs[cpu] = cpuFreqs
	}

	capacities := make([]uint, 0, len(byCapacity))
	for capacity := range byCapacity {
		capacities = append(capacities, capacity)
	}
	sort.Slice(capacities, func(i, j int) bool { return capacities[i] < capacities[j] })

	classes := make([][]uint, 0, len(capacities))
	for _, capacity := range capacities {
		classes = append(classes, byCapacity[capacity])
	}

	kernelVersion, err := ReadKernelVersion()
	if err != nil {
		return nil, err
	}

	return &Info{
		CapacityClasses: classes,
		Freqs:           freqs,
		KernelVersion:   kernelVersion,
	}, nil
}
