package at_test

import (
	"bufio"
	"strings"
	"testing"

	"i4.energy/across/simmodem/at"
)

func TestScanLines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Echoed command with response",
			input:    "AT+CSQ\r\r\n+CSQ: 19,99\r\n\r\nOK\r\n",
			expected: []string{"AT+CSQ\r", "+CSQ: 19,99", "", "OK"},
		},
		{
			name:     "Handshake batch",
			input:    "ATZ\r\r\nOK\r\nATE1\r\r\nOK\r\n",
			expected: []string{"ATZ\r", "OK", "ATE1\r", "OK"},
		},
		{
			name:     "Bare LF terminators",
			input:    "AT+CGMM\nSIM7600E\n\nOK\n",
			expected: []string{"AT+CGMM", "SIM7600E", "", "OK"},
		},
		{
			name:     "SMS prompt keeps echoed body",
			input:    "AT+CMGS=\"+491234567890\"\r\r\n> Test\x1a\r\n+CMGS: 12\r\n\r\nOK\r\n",
			expected: []string{"AT+CMGS=\"+491234567890\"\r", "> Test\x1a", "+CMGS: 12", "", "OK"},
		},
		{
			name:     "URC mixed with AT response",
			input:    "AT+CSQ\r\n+CMTI: \"SM\",1\r\n+CSQ: 20,99\r\nOK\r\n",
			expected: []string{"AT+CSQ", "+CMTI: \"SM\",1", "+CSQ: 20,99", "OK"},
		},
		// EOF scenarios - testing atEOF functionality
		{
			name:     "Incomplete line at EOF",
			input:    "AT+CSQ\r\n+CSQ: 15,99",
			expected: []string{"AT+CSQ", "+CSQ: 15,99"},
		},
		{
			name:     "Command without terminator at EOF",
			input:    "AT+CPIN",
			expected: []string{"AT+CPIN"},
		},
		{
			name:     "Empty input",
			input:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tokens []string
			scanner := bufio.NewScanner(strings.NewReader(tt.input))
			scanner.Split(at.ScanLines)

			for scanner.Scan() {
				tokens = append(tokens, scanner.Text())
			}

			if err := scanner.Err(); err != nil {
				t.Fatalf("Scanner error: %v", err)
			}

			if len(tokens) != len(tt.expected) {
				t.Fatalf("Expected %d tokens, got %d.\nExpected: %q\nGot: %q",
					len(tt.expected), len(tokens), tt.expected, tokens)
			}

			for i, expected := range tt.expected {
				if tokens[i] != expected {
					t.Errorf("Token %d: expected %q, got %q", i, expected, tokens[i])
				}
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected at.ResponseType
	}{
		// Final responses
		{name: "OK response", input: "OK", expected: at.TypeFinal},
		{name: "ERROR response", input: "ERROR", expected: at.TypeFinal},
		{name: "CME Error", input: "+CME ERROR: 30", expected: at.TypeFinal},
		{name: "CMS Error", input: "+CMS ERROR: 500", expected: at.TypeFinal},
		{name: "NO CARRIER", input: "NO CARRIER", expected: at.TypeFinal},

		// URCs
		{name: "New message URC", input: "+CMTI: \"SM\",1", expected: at.TypeURC},
		{name: "Incoming call URC", input: "RING", expected: at.TypeURC},

		// Data responses
		{name: "AT command echo", input: "AT+CSQ", expected: at.TypeData},
		{name: "Signal quality response", input: "+CSQ: 15,99", expected: at.TypeData},
		{name: "GPS stopped status", input: "+CGPS: 0", expected: at.TypeData},
		{name: "Device info", input: "SIMCOM INCORPORATED", expected: at.TypeData},

		// Prompt
		{name: "SMS input prompt", input: "> ", expected: at.TypePrompt},
		{name: "Prompt with echoed body", input: "> Test", expected: at.TypePrompt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := at.Classify(tt.input)
			if result != tt.expected {
				t.Errorf("Expected %v, got %v for input %q", tt.expected, result, tt.input)
			}
		})
	}
}

func TestTest(t *testing.T) {
	tests := map[string]string{
		"AT+CGMI":         "AT+CGMI=?",
		"AT+CLVL?":        "AT+CLVL=?",
		"AT+CLVL=5":       "AT+CLVL=?",
		"AT+CGPS=1,1":     "AT+CGPS=?",
		"AT+PWRCTL=0,1,3": "AT+PWRCTL=?",
	}
	for in, want := range tests {
		if got := at.Test(in); got != want {
			t.Errorf("Test(%q) = %q, want %q", in, got, want)
		}
	}
}
