package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/golang-jwt/jwt"
	"github.com/urfave/cli/v2"
)

const tokenTTL = time.Minute

var (
	yieldDataDir = btcutil.AppDataDir("yield-cli", false)
	statePath    = filepath.Join(yieldDataDir, "state.json")

	httpClient           = &http.Client{Timeout: 30 * time.Second}
	output     io.Writer = os.Stdout
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fatal(err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()

	app.Version = "0.1.0"
	app.Name = "yield CLI"
	app.Usage = "Command line interface for yieldd daemon operators"
	app.Commands = append(
		app.Commands,
		&config,
		&info,
		&position,
		&operations,
		&deposit,
		&withdraw,
		&harvest,
		&webhook,
		&devnetCmd,
	)
	return app
}

func getState() (map[string]string, error) {
	data := map[string]string{}

	file, err := os.ReadFile(statePath)
	if err != nil {
		return nil, errors.New("get config state error: try 'config init'")
	}
	if err := json.Unmarshal(file, &data); err != nil {
		return nil, fmt.Errorf("invalid config state: %w", err)
	}

	return data, nil
}

func setState(data map[string]string) error {
	if _, err := os.Stat(yieldDataDir); os.IsNotExist(err) {
		if err := os.MkdirAll(yieldDataDir, os.ModeDir|0755); err != nil {
			return err
		}
	}

	currentData, err := getState()
	if err != nil {
		currentData = map[string]string{}
	}

	mergedData := merge(currentData, data)

	jsonString, err := json.Marshal(mergedData)
	if err != nil {
		return err
	}
	if err := os.WriteFile(statePath, jsonString, 0644); err != nil {
		return fmt.Errorf("writing to file: %w", err)
	}

	return nil
}

func merge(maps ...map[string]string) map[string]string {
	merge := make(map[string]string, 0)
	for _, m := range maps {
		for k, v := range m {
			merge[k] = v
		}
	}
	return merge
}

func getStateValue(key string) (string, error) {
	state, err := getState()
	if err != nil {
		return "", err
	}
	value, ok := state[key]
	if !ok || value == "" {
		return "", fmt.Errorf("%s not set: try 'config set %s <value>'", key, key)
	}
	return value, nil
}

// callerOrDefault returns the value of the caller flag, or the address stored
// in the local state.
func callerOrDefault(ctx *cli.Context) (string, error) {
	if caller := ctx.String("caller"); caller != "" {
		return caller, nil
	}
	return getStateValue("address")
}

// authorize signs a short lived bearer token for the configured address, if
// an auth secret is set.
func authorize(req *http.Request, state map[string]string) error {
	secret := state["auth_secret"]
	if secret == "" {
		return nil
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject:   state["address"],
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(tokenTTL).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return fmt.Errorf("sign bearer token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+signed)
	return nil
}

func doRequest(method, path string, body interface{}) ([]byte, error) {
	state, err := getState()
	if err != nil {
		return nil, err
	}
	server, err := getStateValue("rpcserver")
	if err != nil {
		return nil, err
	}
	url := strings.TrimSuffix(server, "/") + path

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := authorize(req, state); err != nil {
		return nil, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		res := map[string]string{}
		if err := json.Unmarshal(data, &res); err == nil && res["error"] != "" {
			return nil, errors.New(res["error"])
		}
		return nil, fmt.Errorf("%s", http.StatusText(resp.StatusCode))
	}
	return data, nil
}

func get(path string) error {
	data, err := doRequest(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	printRespJSON(data)
	return nil
}

func post(path string, body interface{}) error {
	data, err := doRequest(http.MethodPost, path, body)
	if err != nil {
		return err
	}
	printRespJSON(data)
	return nil
}

func printRespJSON(data []byte) {
	if len(data) <= 0 {
		return
	}
	out := &bytes.Buffer{}
	if err := json.Indent(out, data, "", "\t"); err != nil {
		fmt.Fprintln(output, string(data))
		return
	}
	fmt.Fprintln(output, out.String())
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[yield] %v\n", err)
	os.Exit(1)
}
