// Package report renders snapshots and delivery statistics for operators.
package report

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Resanso/substation-simulator/internal/simulation"
	"github.com/Resanso/substation-simulator/internal/transmission"
)

// Optimal supply/return temperature spread of a healthy loop, in °C.
const (
	OptimalDeltaTMin = 25.0
	OptimalDeltaTMax = 35.0
)

const width = 70

// DeltaTOptimal reports whether dt lies in the optimal spread.
func DeltaTOptimal(dt float64) bool {
	return dt >= OptimalDeltaTMin && dt <= OptimalDeltaTMax
}

// Banner describes the running simulator at startup.
type Banner struct {
	Device   string
	Location string
	Target   string
	Interval time.Duration
	Model    string
	Sensors  int
}

// Reporter writes human-readable renderings to out and a structured summary
// line to logger. It never touches generator state.
type Reporter struct {
	out     io.Writer
	logger  *slog.Logger
	sensors []simulation.Sensor
}

// New creates a Reporter for the given sensor catalog.
func New(out io.Writer, logger *slog.Logger, sensors []simulation.Sensor) *Reporter {
	return &Reporter{out: out, logger: logger, sensors: sensors}
}

// Start prints the startup banner.
func (r *Reporter) Start(b Banner) {
	fmt.Fprint(r.out, RenderBanner(b))
	r.logger.Info("simulator started",
		"device", b.Device, "model", b.Model, "target", b.Target,
		"interval", b.Interval, "sensors", b.Sensors)
}

// Snapshot prints one tick.
func (r *Reporter) Snapshot(snap simulation.Snapshot) {
	fmt.Fprint(r.out, RenderSnapshot(r.sensors, snap))
	attrs := []any{"tick", snap.Tick, "model", snap.Model}
	if dt, ok := snap.Derived[simulation.DerivedDeltaT]; ok {
		attrs = append(attrs, "delta_t", dt, "optimal", DeltaTOptimal(dt))
	}
	r.logger.Info("readings generated", attrs...)
}

// Statistics prints the delivery counters.
func (r *Reporter) Statistics(st transmission.Statistics) {
	fmt.Fprint(r.out, RenderStatistics(st))
	r.logger.Info("delivery statistics",
		"success", st.Success, "failed", st.Failed, "total", st.Total, "success_rate", st.SuccessRate)
}

// Stop prints the final statistics block.
func (r *Reporter) Stop(st transmission.Statistics) {
	fmt.Fprintf(r.out, "\n%s\nSimulator stopped\n", strings.Repeat("=", width))
	r.Statistics(st)
	r.logger.Info("simulator stopped", "sent", st.Total)
}

// RenderBanner renders the startup banner.
func RenderBanner(b Banner) string {
	var sb strings.Builder
	rule := strings.Repeat("=", width)
	fmt.Fprintln(&sb, rule)
	fmt.Fprintln(&sb, "District heating substation simulator")
	fmt.Fprintln(&sb, rule)
	fmt.Fprintf(&sb, "Device:   %s\n", b.Device)
	fmt.Fprintf(&sb, "Location: %s\n", b.Location)
	fmt.Fprintf(&sb, "Target:   %s\n", b.Target)
	fmt.Fprintf(&sb, "Interval: %s\n", b.Interval)
	fmt.Fprintf(&sb, "Model:    %s (%d sensors)\n", b.Model, b.Sensors)
	if b.Model == simulation.ModelCascade {
		fmt.Fprintln(&sb, "Flow:     station -> [supply] -> boiler -> [forward] -> consumer")
		fmt.Fprintln(&sb, "          station <- [return] <- boiler <- [return] <- consumer")
	}
	fmt.Fprintln(&sb, rule)
	return sb.String()
}

type group struct {
	title   string
	sensors []simulation.Sensor
}

// groups orders sensors into lines: by loop segment when sensors carry one,
// otherwise by physical kind.
func groups(sensors []simulation.Sensor) []group {
	var out []group
	index := map[string]int{}
	for _, s := range sensors {
		name := s.Segment
		if name == "" {
			name = string(s.Kind)
		}
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, group{title: name})
		}
		out[i].sensors = append(out[i].sensors, s)
	}
	return out
}

// RenderSnapshot renders one tick grouped into lines, with the outdoor
// temperature and the ΔT flag when the snapshot carries them.
func RenderSnapshot(sensors []simulation.Sensor, snap simulation.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n%s\n", strings.Repeat("━", width))
	fmt.Fprintf(&sb, "Iteration #%d - %s\n", snap.Tick, snap.Time.Format(time.DateTime))
	if outdoor, ok := snap.Derived[simulation.DerivedOutdoorTemp]; ok {
		fmt.Fprintf(&sb, "Outdoor temperature: %.1f°C\n", outdoor)
	}
	fmt.Fprintln(&sb, strings.Repeat("─", width))

	for n, g := range groups(sensors) {
		fmt.Fprintf(&sb, "Line %d - %s\n", n+1, strings.ToUpper(strings.ReplaceAll(g.title, "_", " ")))
		for _, s := range g.sensors {
			v, ok := snap.Values[s.Key]
			if !ok {
				continue
			}
			format := "   %-34s %7.2f %-3s %s\n"
			if s.Kind == simulation.KindTemperature {
				format = "   %-34s %7.1f %-3s %s\n"
			}
			fmt.Fprintf(&sb, format, s.Name, v, s.Unit, s.Classify(v))
		}
	}

	if dt, ok := snap.Derived[simulation.DerivedDeltaT]; ok {
		fmt.Fprintln(&sb, strings.Repeat("─", width))
		verdict := "optimal"
		if !DeltaTOptimal(dt) {
			verdict = "outside optimal range"
		}
		fmt.Fprintf(&sb, "ΔT (efficiency): %.1f°C %s\n", dt, verdict)
		fmt.Fprintf(&sb, "   Optimal: %.0f-%.0f°C\n", OptimalDeltaTMin, OptimalDeltaTMax)
	}
	return sb.String()
}

// RenderStatistics renders the delivery counters.
func RenderStatistics(st transmission.Statistics) string {
	var sb strings.Builder
	rule := strings.Repeat("═", width)
	fmt.Fprintf(&sb, "\n%s\nStatistics\n%s\n", rule, strings.Repeat("─", width))
	fmt.Fprintf(&sb, "Succeeded:    %5d\n", st.Success)
	fmt.Fprintf(&sb, "Failed:       %5d\n", st.Failed)
	fmt.Fprintf(&sb, "Total:        %5d\n", st.Total)
	fmt.Fprintf(&sb, "Success rate: %5.1f%%\n", st.SuccessRate)
	fmt.Fprintln(&sb, rule)
	return sb.String()
}
