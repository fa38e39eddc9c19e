package modem

import (
	"i4.energy/across/simmodem/at"
)

// GPSFix is a position report as the modem prints it. Latitude and
// longitude carry their hemisphere letter, e.g. "1831.991044N". Without a
// fix every field is empty.
type GPSFix struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	Altitude  string `json:"altitude"`
	Speed     string `json:"speed"`
	Course    string `json:"course"`
}

// +CGPSINFO: <lat>,<N/S>,<log>,<E/W>,<date>,<UTC time>,<alt>,<speed>,<course>
func gpsInfo(i int) at.Field {
	return at.Field{Prefix: at.GPSInfo, Path: []at.Step{at.Split(": ", 1), at.Split(",", i)}}
}

// GPSStatus returns the value of AT+CGPS?, e.g. "1,1" while running.
func (m *Modem) GPSStatus() (string, error) {
	return m.payload(probed(at.CmdGPSStatus), payloadValue, "GPS status")
}

// StartGPS powers on the GNSS engine in standalone mode.
func (m *Modem) StartGPS() error {
	return m.expectOK(probed(at.CmdGPSStart))
}

// StopGPS powers off the GNSS engine.
//
// The modem answers OK and, once the engine is down, "+CGPS: 0". Either of
// those as the last line counts as failure.
func (m *Modem) StopGPS() error {
	cmd := probed(at.CmdGPSStop).Accepting(func(r Response) bool {
		last := r.Last()
		return len(r) > 0 && last != at.OK && last != at.GPSStopped
	})
	return m.expectOK(cmd)
}

// GPSCoordinates starts the GNSS engine if needed and returns the current
// fix. A missing fix is not an error.
func (m *Modem) GPSCoordinates() (GPSFix, error) {
	cmd := Cmd(at.CmdGPSStart, at.CmdGPSInfo).Probing(at.Test(at.CmdGPSStart))
	resp, err := m.Execute(cmd)
	if err != nil {
		return GPSFix{}, err
	}
	return decodeGPSFix(resp)
}

func decodeGPSFix(resp Response) (GPSFix, error) {
	var f [9]string
	for _, i := range []int{0, 1, 2, 3, 6, 7, 8} {
		v, err := extract(resp, gpsInfo(i), "GPS fix")
		if err != nil {
			return GPSFix{}, err
		}
		f[i] = v
	}
	return GPSFix{
		Latitude:  f[0] + f[1],
		Longitude: f[2] + f[3],
		Altitude:  f[6],
		Speed:     f[7],
		Course:    f[8],
	}, nil
}
