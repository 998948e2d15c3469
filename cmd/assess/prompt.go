package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"assessment-backend/client"
	"assessment-backend/models"
)

var errNoInput = errors.New("input closed before the questionnaire was complete")

// parseAnswers accepts the answers as separate arguments or as one
// comma-separated list. No arguments means interactive mode.
func parseAnswers(args []string) ([]int, error) {
	if len(args) == 0 {
		return nil, nil
	}
	var fields []string
	for _, a := range args {
		fields = append(fields, strings.Split(a, ",")...)
	}
	answers := make([]int, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("answer %q is not a number", f)
		}
		answers = append(answers, v)
	}
	if len(answers) != models.QuestionCount {
		return nil, fmt.Errorf("expected %d answers, got %d", models.QuestionCount, len(answers))
	}
	return answers, nil
}

func answerAll(session *client.Session, answers []int) error {
	for i, v := range answers {
		if err := session.Answer(v); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return nil
}

// askAll prompts for every question. "b" goes back one question.
func askAll(session *client.Session, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		step := session.Step()
		q := client.Questions[step-1]
		fmt.Fprintf(out, "\n[%d/%d] %s\n%s\n", step, len(client.Questions), q.Text, q.Description)
		for _, opt := range client.ResponseOptions {
			fmt.Fprintf(out, "  %d) %s\n", opt.Value, opt.Label)
		}
		fmt.Fprint(out, "> ")

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			return errNoInput
		}
		line := strings.TrimSpace(scanner.Text())

		if strings.EqualFold(line, "b") {
			if err := session.Back(); err != nil {
				fmt.Fprintln(out, "Already at the first question.")
			}
			continue
		}
		v, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintln(out, "Please enter a number from 1 to 5, or b to go back.")
			continue
		}
		if err := session.Answer(v); err != nil {
			fmt.Fprintf(out, "%v\n", err)
			continue
		}
		if step == models.QuestionCount {
			return nil
		}
	}
}

func askRetry(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "Retry with the same answers? [y/N] ")
	var reply string
	if _, err := fmt.Fscanln(in, &reply); err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(reply), "y")
}
