package simulation

// Segment identifiers of the default loop.
const (
	SegmentSupplyStation   = "supply_station"
	SegmentBoilerInlet     = "boiler_inlet"
	SegmentForwardConsumer = "forward_consumer"
	SegmentReturnConsumer  = "return_consumer"
	SegmentBoilerOutlet    = "boiler_outlet"
	SegmentReturnStation   = "return_station"
)

const (
	unitCelsius = "°C"
	unitBar     = "bar"
)

// DefaultPhysics returns the loop constants of a winter-season substation.
func DefaultPhysics() Physics {
	pipe := Loss{
		Temp:     Dist{Mean: 2.0, StdDev: 0.3},
		Pressure: Dist{Mean: 0.15, StdDev: 0.02},
	}
	return Physics{
		StationBaseTemp:  85.0,
		OutdoorInfluence: 0.5,
		SupplyPressure:   6.5,
		PressureNoise:    0.1,
		TempNoise:        0.8,
		Smoothing:        0.05,
		OutdoorBase:      -20.0,
		OutdoorAmplitude: 5.0,
		OutdoorNoise:     2.0,
		Losses: map[string]Loss{
			"supply_pipe": pipe,
			"return_pipe": pipe,
			"boiler": {
				Temp:     Dist{Mean: 12.0, StdDev: 1.0},
				Pressure: Dist{Mean: 0.4, StdDev: 0.05},
			},
			"consumer": {
				Temp:     Dist{Mean: 12.0, StdDev: 2.0},
				Pressure: Dist{Mean: 0.1},
			},
		},
		// The boiler loss is split around the consumer so the forward reading
		// sits at the exchanger midpoint.
		Segments: []Segment{
			{ID: SegmentSupplyStation},
			{ID: SegmentBoilerInlet, Upstream: SegmentSupplyStation, Loss: "supply_pipe"},
			{ID: SegmentForwardConsumer, Upstream: SegmentBoilerInlet, Loss: "boiler", Fraction: 0.5},
			{ID: SegmentReturnConsumer, Upstream: SegmentForwardConsumer, Loss: "consumer"},
			{ID: SegmentBoilerOutlet, Upstream: SegmentReturnConsumer, Loss: "boiler", Fraction: 0.5},
			{ID: SegmentReturnStation, Upstream: SegmentBoilerOutlet, Loss: "return_pipe"},
		},
	}
}

// DefaultCascadeSensors returns the eight loop sensors, four lines of
// temperature and pressure.
func DefaultCascadeSensors() []Sensor {
	return []Sensor{
		{Key: "supply_from_station_temp", LocationID: 1, Name: "Supply from station temperature", Kind: KindTemperature, Unit: unitCelsius, Baseline: 85, Min: 70, Max: 100, Segment: SegmentSupplyStation},
		{Key: "supply_from_station_pressure", LocationID: 5, Name: "Supply from station pressure", Kind: KindPressure, Unit: unitBar, Baseline: 6.5, Min: 3, Max: 8, Segment: SegmentSupplyStation},
		{Key: "forward_to_consumer_temp", LocationID: 3, Name: "Forward to consumer temperature", Kind: KindTemperature, Unit: unitCelsius, Baseline: 77, Min: 50, Max: 95, Segment: SegmentForwardConsumer},
		{Key: "forward_to_consumer_pressure", LocationID: 7, Name: "Forward to consumer pressure", Kind: KindPressure, Unit: unitBar, Baseline: 6.15, Min: 3, Max: 8, Segment: SegmentForwardConsumer},
		{Key: "return_from_consumer_temp", LocationID: 4, Name: "Return from consumer temperature", Kind: KindTemperature, Unit: unitCelsius, Baseline: 65, Min: 35, Max: 85, Segment: SegmentReturnConsumer},
		{Key: "return_from_consumer_pressure", LocationID: 6, Name: "Return from consumer pressure", Kind: KindPressure, Unit: unitBar, Baseline: 6.05, Min: 3, Max: 8, Segment: SegmentReturnConsumer},
		{Key: "return_to_station_temp", LocationID: 2, Name: "Return to station temperature", Kind: KindTemperature, Unit: unitCelsius, Baseline: 57, Min: 30, Max: 80, Segment: SegmentReturnStation},
		{Key: "return_to_station_pressure", LocationID: 6, Name: "Return to station pressure", Kind: KindPressure, Unit: unitBar, Baseline: 5.7, Min: 3, Max: 8, Segment: SegmentReturnStation},
	}
}

// DefaultRevertingSensors returns the six independent substation sensors.
func DefaultRevertingSensors() []Sensor {
	return []Sensor{
		{Key: "supply_temp", LocationID: 1, Name: "Supply temperature", Kind: KindTemperature, Unit: unitCelsius, Baseline: 75, Variance: 5, Min: 60, Max: 95, TrendFactor: 0.05},
		{Key: "return_temp", LocationID: 2, Name: "Return temperature", Kind: KindTemperature, Unit: unitCelsius, Baseline: 55, Variance: 4, Min: 45, Max: 70, TrendFactor: 0.05},
		{Key: "hot_water_temp", LocationID: 3, Name: "Hot water temperature", Kind: KindTemperature, Unit: unitCelsius, Baseline: 65, Variance: 3, Min: 55, Max: 75, TrendFactor: 0.03},
		{Key: "supply_pressure", LocationID: 5, Name: "Supply pressure", Kind: KindPressure, Unit: unitBar, Baseline: 6.0, Variance: 0.3, Min: 5, Max: 8, TrendFactor: 0.02},
		{Key: "return_pressure", LocationID: 6, Name: "Return pressure", Kind: KindPressure, Unit: unitBar, Baseline: 4.5, Variance: 0.2, Min: 3.5, Max: 6, TrendFactor: 0.02},
		{Key: "system_pressure", LocationID: 7, Name: "System pressure", Kind: KindPressure, Unit: unitBar, Baseline: 5.2, Variance: 0.25, Min: 4, Max: 7, TrendFactor: 0.02},
	}
}
