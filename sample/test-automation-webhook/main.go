package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/xavierca1/ligue-crm/internal/infra/integration/automation"
)

// Envia um comando de troca de etapa direto para a automação, sem passar pela API.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Aviso: arquivo .env não encontrado, usando variáveis de ambiente do sistema")
	}

	baseURL := os.Getenv("AUTOMATION_BASE_URL")
	if baseURL == "" {
		log.Fatal("AUTOMATION_BASE_URL deve estar configurado no .env")
	}

	clinicID := flag.String("clinic", "", "id da clínica")
	leadID := flag.Int64("lead", 0, "id do lead")
	stageID := flag.Int64("stage", 0, "id da etapa de destino")
	flag.Parse()

	if *clinicID == "" || *leadID == 0 || *stageID == 0 {
		flag.Usage()
		os.Exit(2)
	}

	client := automation.NewClient(baseURL, os.Getenv("AUTOMATION_TOKEN"), automation.DefaultPaths())

	input := automation.ChangeStageInput{
		LeadID:        *leadID,
		TargetStageID: *stageID,
		ClinicID:      *clinicID,
	}

	fmt.Println("Enviando troca de etapa...")
	fmt.Printf("   Clínica: %s\n", input.ClinicID)
	fmt.Printf("   Lead: %d\n", input.LeadID)
	fmt.Printf("   Etapa: %d\n\n", input.TargetStageID)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := client.ChangeStage(ctx, input); err != nil {
		log.Fatalf("Erro na automação: %v", err)
	}
	fmt.Println("Etapa alterada com sucesso!")
}
