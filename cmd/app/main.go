package main

import "github.com/iwtcode/servoSweep/internal/app"

func main() {
	// Создаем и запускаем новый экземпляр приложения fx
	app.New().Run()
}
