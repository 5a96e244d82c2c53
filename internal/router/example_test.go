package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/patric-chuzhbe/tareas/internal/auth"
	"github.com/patric-chuzhbe/tareas/internal/models"
)

func postJSON(url string, payload any, authorization string) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	return http.DefaultClient.Do(req)
}

func ExampleRouter_PostRegistro() {
	env := setupTestRouter(nil)
	defer env.server.Close()

	resp, err := postJSON(
		env.server.URL+"/registro",
		models.CredentialsRequest{Name: "ana", Password: "x1"},
		"",
	)
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Println("Status Code:", resp.StatusCode)
	fmt.Print("Body: ", string(body))

	// Output:
	// Status Code: 200
	// Body: {"mensaje":"Usuario registrado"}
}

func ExampleRouter_PostInicio() {
	env := setupTestRouter(nil)
	defer env.server.Close()

	credentials := models.CredentialsRequest{Name: "ana", Password: "x1"}

	resp, err := postJSON(env.server.URL+"/registro", credentials, "")
	if err != nil {
		panic(err)
	}
	resp.Body.Close()

	resp, err = postJSON(env.server.URL+"/inicio", credentials, "")
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	var login models.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		panic(err)
	}

	fmt.Println("Status Code:", resp.StatusCode)
	fmt.Println("Has token:", login.Token != "")

	// Output:
	// Status Code: 200
	// Has token: true
}

func ExampleRouter_PostTareas() {
	env := setupTestRouter(nil)
	defer env.server.Close()

	token, err := env.tokens.Issue(auth.Claims{Name: "ana"})
	if err != nil {
		panic(err)
	}

	resp, err := postJSON(
		env.server.URL+"/tareas",
		models.TaskRequest{Title: "Comprar pan", Description: "Integral"},
		auth.BearerPrefix+token,
	)
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	var task models.Task
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		panic(err)
	}

	fmt.Println("Status Code:", resp.StatusCode)
	fmt.Println("Title:", task.Title)
	fmt.Println("Has id:", task.ID > 0)

	// Output:
	// Status Code: 200
	// Title: Comprar pan
	// Has id: true
}
